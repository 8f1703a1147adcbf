// Package features turns raw lead records into fixed-width vectors.
//
// A Preprocessor holds the statistics fitted on historical leads (mean and
// scale of numerical fields, vocabulary of categorical fields). It is part
// of the model artifact and is never mutated after fitting, so one
// Preprocessor can serve any number of concurrent runs.
package features

import "leadflow-go/internal/types"

// SchemaVersion identifies the field layout below. Bump it when fields change.
const SchemaVersion = "lead-features/v1"

// UnknownCategory is the explicit bucket for missing categorical values.
const UnknownCategory = "unknown"

type NumericField struct {
	Name    string
	Default float64
}

type CategoricalField struct {
	Name    string
	Default string
}

// Schema lists the fields a model is trained on, in column order.
type Schema struct {
	Version     string
	Numerical   []NumericField
	Categorical []CategoricalField
}

// DefaultSchema is the lead qualification feature layout.
func DefaultSchema() Schema {
	return Schema{
		Version: SchemaVersion,
		Numerical: []NumericField{
			{Name: types.FieldAnnualBudget},
			{Name: types.FieldPropertySquareFeet},
			{Name: types.FieldPreviousServiceCount},
			{Name: types.FieldWebsiteEngagementScore},
		},
		Categorical: []CategoricalField{
			{Name: types.FieldServiceType, Default: UnknownCategory},
			{Name: types.FieldPropertySize, Default: UnknownCategory},
			{Name: types.FieldIndustryType, Default: UnknownCategory},
			{Name: types.FieldSourceChannel, Default: UnknownCategory},
		},
	}
}
