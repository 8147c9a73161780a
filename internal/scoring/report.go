package scoring

// Report is the result of one scoring run. Scores are relative indices
// where 100 means parity with the reference; they are not bounded above.
type Report struct {
	OverallScore float64  `json:"overall_score" yaml:"overall_score"`
	GPUScore     float64  `json:"gpu_score" yaml:"gpu_score"`
	CPUScore     float64  `json:"cpu_score" yaml:"cpu_score"`
	Warnings     []string `json:"warnings" yaml:"warnings"`
}

// Clone returns a copy that shares no memory with r.
func (r Report) Clone() Report {
	if r.Warnings != nil {
		r.Warnings = append([]string(nil), r.Warnings...)
	}

	return r
}

// HasWarnings reports whether the run produced any compatibility warning.
func (r Report) HasWarnings() bool {
	return len(r.Warnings) > 0
}
