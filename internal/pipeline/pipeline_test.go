package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadflow-go/internal/apperr"
	"leadflow-go/internal/model"
	"leadflow-go/internal/types"
)

// fixedQualifier scores every lead with the same probability.
type fixedQualifier struct {
	score    float64
	encodes  int
	scoreErr error
}

func (q *fixedQualifier) Encode(lead types.LeadRecord) (types.FeatureVector, error) {
	q.encodes++
	if _, ok := lead.Text(types.FieldEmail); !ok {
		return types.FeatureVector{}, apperr.MalformedLead(`lead is missing required field "email"`)
	}
	return types.FeatureVector{SchemaVersion: "fake", Values: []float64{1}}, nil
}

func (q *fixedQualifier) Score(types.FeatureVector) (float64, error) {
	return q.score, q.scoreErr
}

type fakeRegistrar struct {
	mu       sync.Mutex
	profiles []types.CustomerProfile
	err      error
	panicMsg string
}

func (r *fakeRegistrar) CreateCustomer(_ context.Context, p types.CustomerProfile) (types.CrmResponse, error) {
	if r.panicMsg != "" {
		panic(r.panicMsg)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles = append(r.profiles, p)
	if r.err != nil {
		return nil, r.err
	}
	return types.CrmResponse{"id": "crm-" + p.ID}, nil
}

type fakeEnroller struct {
	mu          sync.Mutex
	campaigns   []string
	sequences   []string
	subErr      error
	seqErr      error
	emptyReply  bool // answer (nil, nil)
	subscribed  []types.CustomerProfile
	sequencedTo []types.CustomerProfile
}

func (e *fakeEnroller) SubscribeToCampaign(_ context.Context, p types.CustomerProfile, campaignID string) (types.SubscriptionResponse, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.campaigns = append(e.campaigns, campaignID)
	e.subscribed = append(e.subscribed, p)
	if e.subErr != nil || e.emptyReply {
		return nil, e.subErr
	}
	return types.SubscriptionResponse{"subscriber": p.Email}, nil
}

func (e *fakeEnroller) CreateEmailSequence(_ context.Context, p types.CustomerProfile) (types.SequenceResponse, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sequences = append(e.sequences, p.ServiceType)
	e.sequencedTo = append(e.sequencedTo, p)
	if e.seqErr != nil || e.emptyReply {
		return nil, e.seqErr
	}
	return types.SequenceResponse{"sequence_id": "seq-1"}, nil
}

var fixedNow = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

func newOrchestrator(q Qualifier, r Registrar, e Enroller) *Orchestrator {
	return New(q, r, e,
		WithIDGenerator(func() string { return "cust-1" }),
		WithClock(func() time.Time { return fixedNow }),
	)
}

func janeDoe() types.LeadRecord {
	return types.LeadRecord{
		"name":          "Jane Doe",
		"email":         "jane.doe@example.com",
		"phone":         "555-123-4567",
		"service_type":  "residential",
		"property_size": "medium",
		"annual_budget": 5000.0,
	}
}

func TestProcess_EndToEndNurture(t *testing.T) {
	t.Parallel()
	reg, enr := &fakeRegistrar{}, &fakeEnroller{}
	res := newOrchestrator(&fixedQualifier{score: 0.62}, reg, enr).Process(context.Background(), janeDoe())

	assert.Equal(t, types.StatusCompleted, res.Status)
	assert.Equal(t, "ENROLLED", res.Stage)
	assert.Empty(t, res.Error)

	require.Len(t, reg.profiles, 1)
	p := reg.profiles[0]
	assert.Equal(t, types.CustomerProfile{
		ID:          "cust-1",
		Name:        "Jane Doe",
		Email:       "jane.doe@example.com",
		Phone:       "555-123-4567",
		ServiceType: "residential",
		LeadScore:   0.62,
		Status:      "Nurture with Targeted Content",
		CreatedAt:   fixedNow,
	}, p)

	require.NotNil(t, res.LeadInsights)
	assert.Equal(t, types.ActionNurture, res.LeadInsights.RecommendedAction)
	assert.Equal(t, "Custom Consultation", res.LeadInsights.MatchedService)
	assert.Equal(t, "crm-cust-1", res.CrmResponse["id"])

	assert.Equal(t, []string{DefaultCampaignID}, enr.campaigns)
	assert.Equal(t, []string{"residential"}, enr.sequences)
	require.NotNil(t, res.MarketingActions)
	assert.Equal(t, "jane.doe@example.com", res.MarketingActions.CampaignResponse["subscriber"])
	assert.Equal(t, "seq-1", res.MarketingActions.EmailSequence["sequence_id"])
}

func TestProcess_EnrollmentThreshold(t *testing.T) {
	t.Parallel()
	tests := []struct {
		score    float64
		enrolled bool
		stage    string
	}{
		{0.1, false, "SKIPPED_ENROLLMENT"},
		{0.5, false, "SKIPPED_ENROLLMENT"},
		{0.51, true, "ENROLLED"},
		{0.8, true, "ENROLLED"},
		{0.93, true, "ENROLLED"},
	}
	for _, tc := range tests {
		reg, enr := &fakeRegistrar{}, &fakeEnroller{}
		res := newOrchestrator(&fixedQualifier{score: tc.score}, reg, enr).Process(context.Background(), janeDoe())

		assert.Equal(t, types.StatusCompleted, res.Status, "score %v", tc.score)
		assert.Equal(t, tc.stage, res.Stage, "score %v", tc.score)
		assert.Len(t, reg.profiles, 1)
		if tc.enrolled {
			assert.Len(t, enr.campaigns, 1, "score %v", tc.score)
			assert.Len(t, enr.sequences, 1, "score %v", tc.score)
			assert.NotNil(t, res.MarketingActions)
		} else {
			assert.Empty(t, enr.campaigns, "score %v", tc.score)
			assert.Empty(t, enr.sequences, "score %v", tc.score)
			assert.Nil(t, res.MarketingActions)
		}
	}
}

func TestProcess_SkippedEnrollmentSerializesNullMarketing(t *testing.T) {
	t.Parallel()
	res := newOrchestrator(&fixedQualifier{score: 0.5}, &fakeRegistrar{}, &fakeEnroller{}).Process(context.Background(), janeDoe())

	b, err := json.Marshal(res)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	v, present := out["marketing_actions"]
	assert.True(t, present)
	assert.Nil(t, v)
	assert.Equal(t, "LOW_PRIORITY", out["lead_insights"].(map[string]any)["recommended_action"])
}

func TestProcess_CampaignSubscriptionFailureKeepsCRMResponse(t *testing.T) {
	t.Parallel()
	reg := &fakeRegistrar{}
	enr := &fakeEnroller{subErr: apperr.Integration("failed to subscribe to campaign", errors.New("503"))}
	res := newOrchestrator(&fixedQualifier{score: 0.9}, reg, enr).Process(context.Background(), janeDoe())

	assert.Equal(t, types.StatusFailed, res.Status)
	assert.Equal(t, "CampaignSubscriptionFailed", res.ErrorKind)
	assert.Contains(t, res.Error, "campaign subscription failed")
	assert.Equal(t, "REGISTERED", res.Stage)
	assert.Equal(t, "crm-cust-1", res.CrmResponse["id"])
	require.NotNil(t, res.Customer)
	assert.Equal(t, "Immediate Personal Outreach", res.Customer.Status)
	assert.Nil(t, res.MarketingActions)
	assert.Empty(t, enr.sequences, "sequence must not be attempted after a failed subscription")
	assert.Len(t, reg.profiles, 1)
}

func TestProcess_EmailSequenceFailureKeepsCampaignResponse(t *testing.T) {
	t.Parallel()
	enr := &fakeEnroller{seqErr: errors.New("timeout")}
	res := newOrchestrator(&fixedQualifier{score: 0.7}, &fakeRegistrar{}, enr).Process(context.Background(), janeDoe())

	assert.Equal(t, types.StatusFailed, res.Status)
	assert.Equal(t, "EmailSequenceCreationFailed", res.ErrorKind)
	assert.NotNil(t, res.CrmResponse)
	require.NotNil(t, res.MarketingActions)
	assert.Equal(t, "jane.doe@example.com", res.MarketingActions.CampaignResponse["subscriber"])
	assert.Nil(t, res.MarketingActions.EmailSequence)
}

func TestProcess_EmptyEnrollerRepliesStillRecorded(t *testing.T) {
	t.Parallel()
	res := newOrchestrator(&fixedQualifier{score: 0.9}, &fakeRegistrar{}, &fakeEnroller{emptyReply: true}).
		Process(context.Background(), janeDoe())

	assert.Equal(t, types.StatusCompleted, res.Status)
	assert.Equal(t, "ENROLLED", res.Stage)
	require.NotNil(t, res.MarketingActions)
	assert.NotNil(t, res.MarketingActions.CampaignResponse)
	assert.NotNil(t, res.MarketingActions.EmailSequence)
}

func TestProcess_RegistrarFailureStopsBeforeMarketing(t *testing.T) {
	t.Parallel()
	enr := &fakeEnroller{}
	res := newOrchestrator(&fixedQualifier{score: 0.95}, &fakeRegistrar{err: errors.New("connection reset")}, enr).Process(context.Background(), janeDoe())

	assert.Equal(t, types.StatusFailed, res.Status)
	assert.Equal(t, "IntegrationError", res.ErrorKind)
	assert.Equal(t, "SCORED", res.Stage)
	assert.Nil(t, res.CrmResponse)
	assert.Nil(t, res.Customer)
	assert.NotNil(t, res.LeadInsights)
	assert.Empty(t, enr.campaigns)
	assert.Empty(t, enr.sequences)
}

func TestProcess_MalformedLeadHasNoSideEffects(t *testing.T) {
	t.Parallel()
	reg, enr := &fakeRegistrar{}, &fakeEnroller{}
	lead := janeDoe()
	delete(lead, "email")
	res := newOrchestrator(&fixedQualifier{score: 0.9}, reg, enr).Process(context.Background(), lead)

	assert.Equal(t, types.StatusFailed, res.Status)
	assert.Equal(t, "MalformedLead", res.ErrorKind)
	assert.Equal(t, `lead is missing required field "email"`, res.Error)
	assert.Equal(t, "RECEIVED", res.Stage)
	assert.Nil(t, res.LeadInsights)
	assert.Empty(t, reg.profiles)
	assert.Empty(t, enr.campaigns)
}

func TestProcess_ModelNotTrainedHasNoSideEffects(t *testing.T) {
	t.Parallel()
	reg, enr := &fakeRegistrar{}, &fakeEnroller{}
	res := newOrchestrator(model.NewScorer(nil), reg, enr).Process(context.Background(), janeDoe())

	assert.Equal(t, types.StatusFailed, res.Status)
	assert.Equal(t, "ModelNotTrained", res.ErrorKind)
	assert.Empty(t, reg.profiles)
	assert.Empty(t, enr.campaigns)
	assert.Empty(t, enr.sequences)
}

func TestProcess_ScoreErrorRecordedVerbatim(t *testing.T) {
	t.Parallel()
	reg := &fakeRegistrar{}
	res := newOrchestrator(&fixedQualifier{scoreErr: errors.New("feature vector width 3 does not match model width 4")}, reg, &fakeEnroller{}).
		Process(context.Background(), janeDoe())

	assert.Equal(t, types.StatusFailed, res.Status)
	assert.Equal(t, "feature vector width 3 does not match model width 4", res.Error)
	assert.Empty(t, reg.profiles)
}

func TestProcess_PanicBecomesFailedResult(t *testing.T) {
	t.Parallel()
	res := newOrchestrator(&fixedQualifier{score: 0.9}, &fakeRegistrar{panicMsg: "boom"}, &fakeEnroller{}).
		Process(context.Background(), janeDoe())

	assert.Equal(t, types.StatusFailed, res.Status)
	assert.Contains(t, res.Error, "boom")
	assert.Equal(t, "SCORED", res.Stage)
}

func TestProcess_CustomCampaignAndFreshIDs(t *testing.T) {
	t.Parallel()
	reg, enr := &fakeRegistrar{}, &fakeEnroller{}
	o := New(&fixedQualifier{score: 0.99}, reg, enr, WithCampaignID("spring_push"))
	o.Process(context.Background(), janeDoe())
	o.Process(context.Background(), janeDoe())

	assert.Equal(t, []string{"spring_push", "spring_push"}, enr.campaigns)
	require.Len(t, reg.profiles, 2)
	assert.NotEqual(t, reg.profiles[0].ID, reg.profiles[1].ID)
	assert.NotEmpty(t, reg.profiles[0].ID)
}

func TestStateString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "SKIPPED_ENROLLMENT", StateSkippedEnrollment.String())
	assert.Equal(t, "DONE", StateDone.String())
	assert.Equal(t, "FAILED", StateFailed.String())
}
