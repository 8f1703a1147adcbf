package model

import (
	"fmt"
	"math"

	"leadflow-go/internal/apperr"
	"leadflow-go/internal/features"
	"leadflow-go/internal/types"
)

// Scorer encodes and scores leads with a fixed artifact. It holds no
// mutable state and is safe for concurrent use.
type Scorer struct {
	version      string
	preprocessor *features.Preprocessor
	classifier   Classifier
}

// NewScorer wraps an artifact. A nil artifact yields a scorer whose every
// call fails with KindModelNotTrained.
func NewScorer(a *Artifact) *Scorer {
	if a == nil || a.validate() != nil {
		return &Scorer{}
	}
	return &Scorer{version: a.Version, preprocessor: a.Preprocessor, classifier: a}
}

func (s *Scorer) Ready() bool {
	return s != nil && s.preprocessor != nil && s.classifier != nil
}

// Version of the loaded artifact, empty when not ready.
func (s *Scorer) Version() string {
	if !s.Ready() {
		return ""
	}
	return s.version
}

func (s *Scorer) Encode(lead types.LeadRecord) (types.FeatureVector, error) {
	if !s.Ready() {
		return types.FeatureVector{}, notTrained("encode")
	}
	return s.preprocessor.Encode(lead)
}

// Score returns the qualification probability in [0,1].
func (s *Scorer) Score(v types.FeatureVector) (float64, error) {
	if !s.Ready() {
		return 0, notTrained("score")
	}
	p, err := s.classifier.PredictProbability(v)
	if err != nil {
		return 0, fmt.Errorf("score: %w", err)
	}
	if math.IsNaN(p) {
		return 0, fmt.Errorf("score: model returned NaN")
	}
	return math.Min(1, math.Max(0, p)), nil
}

func notTrained(op string) error {
	return apperr.ModelNotTrained("model not trained: load a model artifact first").WithOp(op)
}
