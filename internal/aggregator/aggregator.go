package aggregator

import (
	"leadflow-go/internal/pipeline"
	"leadflow-go/internal/types"
)

type Summary struct {
	Total          int            `json:"total"`
	Completed      int            `json:"completed"`
	Failed         int            `json:"failed"`
	Enrolled       int            `json:"enrolled"`
	ActionCounts   map[string]int `json:"action_counts"`
	ErrorKinds     map[string]int `json:"error_kinds"`
	MeanScore      float64        `json:"mean_score"`
	QualifiedRatio float64        `json:"qualified_ratio"`
}

// Summarize counts outcomes over a set of processing results.
func Summarize(results []types.ProcessingResult) Summary {
	s := Summary{
		Total:        len(results),
		ActionCounts: map[string]int{},
		ErrorKinds:   map[string]int{},
	}
	scored := 0
	qualified := 0
	var sum float64
	for _, r := range results {
		if r.Failed() {
			s.Failed++
			s.ErrorKinds[r.ErrorKind]++
		} else {
			s.Completed++
		}
		if r.Stage == pipeline.StateEnrolled.String() ||
			(r.MarketingActions != nil && r.MarketingActions.EmailSequence != nil) {
			s.Enrolled++
		}
		if r.LeadInsights != nil {
			scored++
			sum += r.LeadInsights.QualificationScore
			s.ActionCounts[r.LeadInsights.RecommendedAction.String()]++
			if r.LeadInsights.RecommendedAction != types.ActionLowPriority {
				qualified++
			}
		}
	}
	if scored > 0 {
		s.MeanScore = sum / float64(scored)
		s.QualifiedRatio = float64(qualified) / float64(scored)
	}
	return s
}
