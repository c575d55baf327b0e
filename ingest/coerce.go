package ingest

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/collections_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Day-first layouts come before month-first ones: the source systems are Colombian.
var dateTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2/1/2006 3:04:05 PM",
	"2/1/2006 3:04 PM",
	"2/1/2006",
	"2-1-2006 15:04:05",
	"2-1-2006",
}

var (
	compactDatePattern = regexp.MustCompile(`^(19|20)\d{2}(0[1-9]|1[0-2])(0[1-9]|[12]\d|3[01])$`)
	serialDatePattern  = regexp.MustCompile(`^\d{1,5}(\.\d+)?$`)
)

// ParseDateTime parses a cell leniently. Excel serial numbers (raw workbook cells) are
// accepted. ok=false for anything unparseable; there is no fallback to "now" or the epoch.
func ParseDateTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" || utils.IsNullToken(s) {
		return time.Time{}, false
	}
	if compactDatePattern.MatchString(s) {
		t, err := time.Parse("20060102", s)
		return t, err == nil
	}
	if serialDatePattern.MatchString(s) {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f < 1 {
			return time.Time{}, false
		}
		t, err := excelize.ExcelDateToTime(f, false)
		if err != nil {
			return time.Time{}, false
		}
		return t.Round(time.Second), true
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Location() != time.UTC {
				// keep the wall clock, drop the zone: columns are timestamp without time zone
				t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
			}
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseDate is ParseDateTime truncated to midnight.
func ParseDate(s string) (time.Time, bool) {
	t, ok := ParseDateTime(s)
	if !ok {
		return time.Time{}, false
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
}

// ParseNumber parses a numeric cell; ok=false for non-numeric text.
func ParseNumber(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if utils.IsNullToken(s) {
		return decimal.Zero, false
	}
	d, err := utils.ParseDecimal(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// setTime replaces the raw text of field with its parsed time, nil when unparseable.
func setTime(r Row, field string, dateOnly bool) {
	if t, ok := r[field].(time.Time); ok {
		if dateOnly {
			r[field] = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		}
		return
	}
	raw, _ := r[field].(string)
	var (
		t  time.Time
		ok bool
	)
	if dateOnly {
		t, ok = ParseDate(raw)
	} else {
		t, ok = ParseDateTime(raw)
	}
	if ok {
		r[field] = t
	} else {
		r[field] = nil
	}
}

// setIdentifier rewrites a numeric identifier field as plain digits.
func setIdentifier(r Row, field string) {
	if s, ok := r[field].(string); ok {
		r[field] = utils.PlainNumberText(s)
	}
}

func setDefault(r Row, field string, value any) {
	if !r.Present(field) {
		r[field] = value
	}
}

// firstPresent returns the first present field value, nil when none is.
func firstPresent(r Row, fields ...string) any {
	for _, f := range fields {
		if r.Present(f) {
			return r[f]
		}
	}
	return nil
}
