// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"leadflow-go/internal/apperr"
	"leadflow-go/internal/insight"
	"leadflow-go/internal/logger"
	"leadflow-go/internal/types"
)

// DefaultCampaignID is the nurture campaign qualified leads are subscribed to.
const DefaultCampaignID = "organizational_services_nurture"

// Qualifier encodes and scores leads. *model.Scorer implements it.
type Qualifier interface {
	Encode(lead types.LeadRecord) (types.FeatureVector, error)
	Score(v types.FeatureVector) (float64, error)
}

// Registrar creates customers in the CRM.
type Registrar interface {
	CreateCustomer(ctx context.Context, p types.CustomerProfile) (types.CrmResponse, error)
}

// Enroller subscribes customers to campaigns and email sequences.
type Enroller interface {
	SubscribeToCampaign(ctx context.Context, p types.CustomerProfile, campaignID string) (types.SubscriptionResponse, error)
	CreateEmailSequence(ctx context.Context, p types.CustomerProfile) (types.SequenceResponse, error)
}

// Orchestrator runs one lead through scoring, CRM registration and, for
// qualified leads, marketing enrollment. It keeps no per-run state, so a
// single Orchestrator serves concurrent runs. It never retries.
type Orchestrator struct {
	qualifier  Qualifier
	registrar  Registrar
	enroller   Enroller
	campaignID string
	newID      func() string
	now        func() time.Time
	log        *logrus.Entry
}

type Option func(*Orchestrator)

func WithCampaignID(id string) Option {
	return func(o *Orchestrator) {
		if id != "" {
			o.campaignID = id
		}
	}
}

func WithIDGenerator(f func() string) Option {
	return func(o *Orchestrator) { o.newID = f }
}

func WithClock(f func() time.Time) Option {
	return func(o *Orchestrator) { o.now = f }
}

func WithLogger(l *logrus.Entry) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.log = l
		}
	}
}

func New(q Qualifier, r Registrar, e Enroller, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		qualifier:  q,
		registrar:  r,
		enroller:   e,
		campaignID: DefaultCampaignID,
		newID:      uuid.NewString,
		now:        time.Now,
		log:        logger.Nop().Entry,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.log = o.log.WithField("component", "pipeline")
	return o
}

// run is the state of a single lead-processing run.
type run struct {
	state     State
	insight   *types.QualificationInsight
	customer  *types.CustomerProfile
	crm       types.CrmResponse
	marketing *types.MarketingActions
	log       *logrus.Entry
}

func (r *run) to(s State) {
	r.log.WithField("from", r.state.String()).WithField("to", s.String()).Debug("transition")
	r.state = s
}

// Process runs the pipeline for one lead. Failures never escape as errors
// or panics; they come back as a result with status "failed".
func (o *Orchestrator) Process(ctx context.Context, lead types.LeadRecord) (res types.ProcessingResult) {
	start := time.Now()
	r := &run{state: StateReceived, log: o.log}
	if email, ok := lead.Text(types.FieldEmail); ok {
		r.log = r.log.WithField("lead_email", email)
	}

	defer func() {
		if p := recover(); p != nil {
			res = r.result(fmt.Errorf("panic during %s: %v", r.state, p))
		}
		res.DurationMs = time.Since(start).Milliseconds()
	}()

	err := o.advance(ctx, r, lead)
	res = r.result(err)
	if err != nil {
		logger.ErrorFields(r.log, err).WithField("stage", res.Stage).Warn("lead processing failed")
		r.to(StateFailed)
	} else {
		r.log.WithField("stage", res.Stage).Info("lead processed")
		r.to(StateDone)
	}
	return res
}

func (o *Orchestrator) advance(ctx context.Context, r *run, lead types.LeadRecord) error {
	// RECEIVED -> SCORED
	vec, err := o.qualifier.Encode(lead)
	if err != nil {
		return err
	}
	score, err := o.qualifier.Score(vec)
	if err != nil {
		return err
	}
	ins := insight.Generate(score, lead)
	r.insight = &ins
	r.to(StateScored)

	// SCORED -> REGISTERED
	profile := o.newProfile(lead, ins)
	resp, err := o.registrar.CreateCustomer(ctx, profile)
	if err != nil {
		if apperr.GetKind(err) == apperr.KindUnknown {
			err = apperr.Integration("failed to create customer", err)
		}
		return err
	}
	if resp == nil {
		resp = types.CrmResponse{}
	}
	r.customer = &profile
	r.crm = resp
	r.to(StateRegistered)

	// REGISTERED -> ENROLLED | SKIPPED_ENROLLMENT
	switch ins.RecommendedAction {
	case types.ActionLowPriority:
		r.to(StateSkippedEnrollment)
		return nil
	case types.ActionNurture, types.ActionImmediateOutreach:
		return o.enroll(ctx, r, profile)
	default:
		return fmt.Errorf("unhandled action %v", ins.RecommendedAction)
	}
}

func (o *Orchestrator) enroll(ctx context.Context, r *run, profile types.CustomerProfile) error {
	sub, err := o.enroller.SubscribeToCampaign(ctx, profile, o.campaignID)
	if err != nil {
		return apperr.Wrap(apperr.KindCampaignSubscriptionFailed, "campaign subscription failed", err)
	}
	if sub == nil {
		sub = types.SubscriptionResponse{}
	}
	r.marketing = &types.MarketingActions{CampaignID: o.campaignID, CampaignResponse: sub}

	seq, err := o.enroller.CreateEmailSequence(ctx, profile)
	if err != nil {
		return apperr.Wrap(apperr.KindEmailSequenceCreationFailed, "email sequence creation failed", err)
	}
	if seq == nil {
		seq = types.SequenceResponse{}
	}
	r.marketing.EmailSequence = seq
	r.to(StateEnrolled)
	return nil
}

func (o *Orchestrator) newProfile(lead types.LeadRecord, ins types.QualificationInsight) types.CustomerProfile {
	name, _ := lead.Text(types.FieldName)
	email, _ := lead.Text(types.FieldEmail)
	phone, _ := lead.Text(types.FieldPhone)
	svc, _ := lead.Text(types.FieldServiceType)
	source, _ := lead.Text(types.FieldSourceChannel)
	return types.CustomerProfile{
		ID:          o.newID(),
		Name:        name,
		Email:       email,
		Phone:       phone,
		ServiceType: svc,
		Source:      source,
		LeadScore:   ins.QualificationScore,
		Status:      ins.RecommendedAction.Label(),
		CreatedAt:   o.now().UTC(),
	}
}

// result assembles the terminal record from whatever the run produced.
func (r *run) result(err error) types.ProcessingResult {
	res := types.ProcessingResult{
		Status:           types.StatusCompleted,
		Stage:            r.state.String(),
		CrmResponse:      r.crm,
		LeadInsights:     r.insight,
		Customer:         r.customer,
		MarketingActions: r.marketing,
	}
	if err != nil {
		res.Status = types.StatusFailed
		res.Error = err.Error()
		res.ErrorKind = apperr.GetKind(err).String()
	}
	return res
}
