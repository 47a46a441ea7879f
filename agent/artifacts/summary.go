package artifacts

import "math"

// TestSummary aggregates a batch of test results.
type TestSummary struct {
	Total  int
	Passed int
	// PassRate 为百分比，保留一位小数
	PassRate    float64
	FailedTests []string
}

// Summarize counts passes and collects failing titles in input order.
func Summarize(results []TestResult) TestSummary {
	s := TestSummary{Total: len(results)}
	for _, r := range results {
		if r.Status == StatusPass {
			s.Passed++
		} else {
			s.FailedTests = append(s.FailedTests, r.Title)
		}
	}
	if s.Total > 0 {
		s.PassRate = math.Round(float64(s.Passed)/float64(s.Total)*1000) / 10
	}
	return s
}
