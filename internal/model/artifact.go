// Package model holds the trained lead qualification model: the artifact
// format, the runtime scorer and the offline training procedure.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"gonum.org/v1/gonum/floats"

	"leadflow-go/internal/features"
	"leadflow-go/internal/types"
)

const algorithmLogReg = "logistic-regression"

// Classifier turns a feature vector into a calibrated probability.
type Classifier interface {
	PredictProbability(v types.FeatureVector) (float64, error)
}

// LogisticRegression is a linear model with a sigmoid link.
type LogisticRegression struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

func (m *LogisticRegression) PredictProbability(v types.FeatureVector) (float64, error) {
	if len(v.Values) != len(m.Weights) {
		return 0, fmt.Errorf("feature vector width %d does not match model width %d", len(v.Values), len(m.Weights))
	}
	return sigmoid(floats.Dot(m.Weights, v.Values) + m.Bias), nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// Artifact is the versioned, serializable output of training. The format
// stores a logistic regression only; Algorithm must be "logistic-regression".
type Artifact struct {
	Version      string                 `json:"version"`
	Algorithm    string                 `json:"algorithm"`
	TrainedAt    time.Time              `json:"trained_at"`
	Preprocessor *features.Preprocessor `json:"preprocessor"`
	Model        *LogisticRegression    `json:"model"`
	Evaluation   *Report                `json:"evaluation,omitempty"`
}

// PredictProbability checks the vector was produced for this artifact's schema.
func (a *Artifact) PredictProbability(v types.FeatureVector) (float64, error) {
	if v.SchemaVersion != a.Preprocessor.SchemaVersion {
		return 0, fmt.Errorf("feature schema %q does not match model schema %q", v.SchemaVersion, a.Preprocessor.SchemaVersion)
	}
	return a.Model.PredictProbability(v)
}

func (a *Artifact) validate() error {
	if a.Preprocessor == nil {
		return errors.New("artifact has no preprocessor")
	}
	if a.Algorithm != algorithmLogReg {
		return fmt.Errorf("unsupported algorithm %q", a.Algorithm)
	}
	if a.Model == nil {
		return errors.New("artifact has no model")
	}
	if w := a.Preprocessor.Width(); w != len(a.Model.Weights) {
		return fmt.Errorf("preprocessor width %d does not match %d model weights", w, len(a.Model.Weights))
	}
	return nil
}

// Save writes the artifact as indented JSON.
func Save(path string, a *Artifact) error {
	if err := a.validate(); err != nil {
		return fmt.Errorf("save artifact: %w", err)
	}
	b, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}
	return os.WriteFile(path, b, 0o644)
}

// Load reads and validates an artifact written by Save.
func Load(path string) (*Artifact, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	var a Artifact
	if err := json.Unmarshal(b, &a); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	if err := a.validate(); err != nil {
		return nil, fmt.Errorf("load artifact %s: %w", path, err)
	}
	return &a, nil
}
