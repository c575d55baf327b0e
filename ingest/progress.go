package ingest

import "fmt"

// ProgressFunc receives progress updates; fraction is in [0, 1]. It is purely
// observational and may be nil.
type ProgressFunc func(fraction float64, message string)

func (p ProgressFunc) report(fraction float64, message string) {
	if p == nil {
		return
	}
	if fraction > 1 {
		fraction = 1
	}
	p(fraction, message)
}

// stepper numbers the fixed steps of a pipeline: "Paso i/n: msg".
type stepper struct {
	progress ProgressFunc
	total    int
	current  int
}

func newStepper(progress ProgressFunc, total int) *stepper {
	return &stepper{progress: progress, total: total}
}

func (s *stepper) step(message string) {
	s.current++
	s.progress.report(float64(s.current)/float64(s.total), fmt.Sprintf("Paso %d/%d: %s", s.current, s.total, message))
}
