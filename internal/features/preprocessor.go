package features

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"gonum.org/v1/gonum/stat"

	"leadflow-go/internal/apperr"
	"leadflow-go/internal/types"
)

// NumericStats are the standardization parameters of one numerical field.
type NumericStats struct {
	Field   string  `json:"field"`
	Default float64 `json:"default"`
	Mean    float64 `json:"mean"`
	Scale   float64 `json:"scale"`
}

// CategoryVocab is the sorted set of values seen for one categorical field.
type CategoryVocab struct {
	Field      string   `json:"field"`
	Default    string   `json:"default"`
	Categories []string `json:"categories"`
}

// Preprocessor encodes leads for a trained model.
type Preprocessor struct {
	SchemaVersion string          `json:"schema_version"`
	Numerical     []NumericStats  `json:"numerical"`
	Categorical   []CategoryVocab `json:"categorical"`
}

// Fit computes scaler statistics and category vocabularies from records.
func Fit(schema Schema, records []types.LeadRecord) (*Preprocessor, error) {
	if len(records) == 0 {
		return nil, errors.New("fit: no records")
	}
	p := &Preprocessor{SchemaVersion: schema.Version}

	col := make([]float64, len(records))
	for _, f := range schema.Numerical {
		for i, r := range records {
			col[i] = numeric(r, f.Name, f.Default)
		}
		mean, variance := stat.PopMeanVariance(col, nil)
		scale := math.Sqrt(variance)
		if scale == 0 || math.IsNaN(scale) {
			scale = 1
		}
		p.Numerical = append(p.Numerical, NumericStats{Field: f.Name, Default: f.Default, Mean: mean, Scale: scale})
	}

	for _, f := range schema.Categorical {
		seen := map[string]struct{}{UnknownCategory: {}}
		for _, r := range records {
			seen[category(r, f.Name, f.Default)] = struct{}{}
		}
		cats := make([]string, 0, len(seen))
		for c := range seen {
			cats = append(cats, c)
		}
		slices.Sort(cats)
		p.Categorical = append(p.Categorical, CategoryVocab{Field: f.Name, Default: f.Default, Categories: cats})
	}
	return p, nil
}

// Width is the length of vectors produced by Encode.
func (p *Preprocessor) Width() int {
	n := len(p.Numerical)
	for _, c := range p.Categorical {
		n += len(c.Categories)
	}
	return n
}

// FeatureNames returns column names in vector order.
func (p *Preprocessor) FeatureNames() []string {
	names := make([]string, 0, p.Width())
	for _, n := range p.Numerical {
		names = append(names, n.Field)
	}
	for _, c := range p.Categorical {
		for _, v := range c.Categories {
			names = append(names, c.Field+"="+v)
		}
	}
	return names
}

// Encode maps a lead to its feature vector. Missing optional fields take
// their schema default; categories unseen at fit time encode as all zeros.
// Only a missing email fails, with KindMalformedLead.
func (p *Preprocessor) Encode(lead types.LeadRecord) (types.FeatureVector, error) {
	if _, ok := lead.Text(types.FieldEmail); !ok {
		return types.FeatureVector{}, apperr.MalformedLead(fmt.Sprintf("lead is missing required field %q", types.FieldEmail)).WithOp("encode")
	}

	return types.FeatureVector{SchemaVersion: p.SchemaVersion, Values: p.Transform(lead)}, nil
}

// Transform applies the fitted encoding without the identity check.
// Historical training rows carry no contact data.
func (p *Preprocessor) Transform(lead types.LeadRecord) []float64 {
	values := make([]float64, 0, p.Width())
	for _, n := range p.Numerical {
		values = append(values, (numeric(lead, n.Field, n.Default)-n.Mean)/n.Scale)
	}
	for _, c := range p.Categorical {
		v := category(lead, c.Field, c.Default)
		for _, known := range c.Categories {
			if known == v {
				values = append(values, 1)
			} else {
				values = append(values, 0)
			}
		}
	}
	return values
}

func numeric(r types.LeadRecord, field string, def float64) float64 {
	v, ok := r.Float(field)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}

func category(r types.LeadRecord, field, def string) string {
	v, ok := r.Text(field)
	if !ok {
		return def
	}
	return strings.ToLower(v)
}
