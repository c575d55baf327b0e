package ingest

import "strings"

// Classify splits records into valid rows and error rows. Every input record ends up in
// exactly one of the two. Missing required fields are reported as "<campo> faltante",
// joined with "; "; the strategy's format checks only run on rows with every required
// field present.
func Classify(s *Strategy, records []Record) (valid []Record, errs []ErrorRecord) {
	for _, rec := range records {
		var reasons []string
		for _, field := range s.Required {
			if !rec.Values.Present(field) {
				reasons = append(reasons, field+" faltante")
			}
		}
		if len(reasons) == 0 && s.Check != nil {
			reasons = s.Check(rec.Values)
		}
		if len(reasons) > 0 {
			errs = append(errs, ErrorRecord{Record: rec, Reason: strings.Join(reasons, "; ")})
			continue
		}
		valid = append(valid, rec)
	}
	return valid, errs
}
