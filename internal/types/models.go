package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Lead field names as they arrive from forms, spreadsheets and the API.
const (
	FieldName                   = "name"
	FieldEmail                  = "email"
	FieldPhone                  = "phone"
	FieldServiceType            = "service_type"
	FieldPropertySize           = "property_size"
	FieldAnnualBudget           = "annual_budget"
	FieldPropertySquareFeet     = "property_square_feet"
	FieldPreviousServiceCount   = "previous_service_count"
	FieldWebsiteEngagementScore = "website_engagement_score"
	FieldSourceChannel          = "source_channel"
	FieldIndustryType           = "industry_type"

	// FieldQualified is the training label column of historical exports.
	FieldQualified = "is_qualified_lead"
)

// LeadRecord is a raw inbound lead. Absent keys mean "unknown".
type LeadRecord map[string]any

// Text returns the trimmed string form of a field. Numbers are formatted
// without trailing zeros. ok is false when the field is absent or blank.
func (l LeadRecord) Text(field string) (string, bool) {
	v, present := l[field]
	if !present || v == nil {
		return "", false
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		s = t.String()
	default:
		s = fmt.Sprint(t)
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// Float returns a numeric field. Strings are parsed; anything unparseable
// reports ok=false.
func (l LeadRecord) Float(field string) (float64, bool) {
	v, present := l[field]
	if !present || v == nil {
		return 0, false
	}
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return 0, false
}

// FeatureVector is the encoded form of a lead for a given feature schema.
type FeatureVector struct {
	SchemaVersion string    `json:"schema_version"`
	Values        []float64 `json:"values"`
}

// QualificationInsight is the decision derived from a score and the lead.
type QualificationInsight struct {
	QualificationScore float64 `json:"qualification_score"`
	RecommendedAction  Action  `json:"recommended_action"`
	MatchedService     string  `json:"matched_service"`
}

// CustomerProfile is the record registered with the CRM.
type CustomerProfile struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	ServiceType string    `json:"service_type"`
	Source      string    `json:"source,omitempty"`
	LeadScore   float64   `json:"lead_score"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// FirstName is the first whitespace-separated token of the name.
func (c CustomerProfile) FirstName() string {
	parts := strings.Fields(c.Name)
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

// Collaborator responses are passed through as decoded JSON objects.
type (
	CrmResponse          map[string]any
	SubscriptionResponse map[string]any
	SequenceResponse     map[string]any
)

// MarketingActions records what enrollment produced.
type MarketingActions struct {
	CampaignID       string               `json:"campaign_id"`
	CampaignResponse SubscriptionResponse `json:"campaign_response"`
	EmailSequence    SequenceResponse     `json:"email_sequence,omitempty"`
}

type RunStatus string

const (
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
)

// ProcessingResult is the terminal outcome of one lead run.
type ProcessingResult struct {
	Status           RunStatus             `json:"status"`
	Stage            string                `json:"stage"`
	CrmResponse      CrmResponse           `json:"crm_response,omitempty"`
	LeadInsights     *QualificationInsight `json:"lead_insights,omitempty"`
	Customer         *CustomerProfile      `json:"customer,omitempty"`
	MarketingActions *MarketingActions     `json:"marketing_actions"`
	Error            string                `json:"error,omitempty"`
	ErrorKind        string                `json:"error_kind,omitempty"`
	DurationMs       int64                 `json:"duration_ms"`
}

// Failed reports whether the run ended in the failed state.
func (r ProcessingResult) Failed() bool {
	return r.Status == StatusFailed
}
