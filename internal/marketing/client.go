// Package marketing enrolls registered customers into campaigns and
// email sequences on the marketing-automation platform.
package marketing

import (
	"context"
	"net/url"
	"sync"

	"github.com/sirupsen/logrus"

	"leadflow-go/internal/apperr"
	"leadflow-go/internal/transport"
	"leadflow-go/internal/types"
)

type subscriberPayload struct {
	Email     string   `json:"email"`
	FirstName string   `json:"first_name"`
	Tags      []string `json:"tags"`
}

type sequencePayload struct {
	CustomerEmail string          `json:"customer_email"`
	Sequence      []EmailTemplate `json:"sequence"`
}

type Client struct {
	http *transport.Client
	log  *logrus.Entry
}

func NewClient(tc *transport.Client, log *logrus.Entry) *Client {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Client{http: tc, log: log.WithField("module", "marketing")}
}

// Tags segment a subscriber by service and acquisition channel.
func Tags(p types.CustomerProfile) []string {
	source := p.Source
	if source == "" {
		source = "unknown"
	}
	return []string{"service_" + p.ServiceType, "new_lead", "source_" + source}
}

func (c *Client) SubscribeToCampaign(ctx context.Context, p types.CustomerProfile, campaignID string) (types.SubscriptionResponse, error) {
	payload := subscriberPayload{Email: p.Email, FirstName: p.FirstName(), Tags: Tags(p)}
	var out types.SubscriptionResponse
	path := "/campaigns/" + url.PathEscape(campaignID) + "/subscribers"
	if err := c.http.PostJSON(ctx, path, payload, &out); err != nil {
		c.log.WithField("campaign_id", campaignID).WithError(err).Error("marketing tool integration error")
		return nil, apperr.Integration("failed to subscribe to campaign", err).WithOp("marketing.SubscribeToCampaign")
	}
	if out == nil {
		out = types.SubscriptionResponse{}
	}
	return out, nil
}

func (c *Client) CreateEmailSequence(ctx context.Context, p types.CustomerProfile) (types.SequenceResponse, error) {
	payload := sequencePayload{
		CustomerEmail: p.Email,
		Sequence:      SequenceFor(types.ParseServiceType(p.ServiceType)),
	}
	var out types.SequenceResponse
	if err := c.http.PostJSON(ctx, "/email_sequences", payload, &out); err != nil {
		c.log.WithField("customer_id", p.ID).WithError(err).Error("email sequence creation error")
		return nil, apperr.Integration("failed to create email sequence", err).WithOp("marketing.CreateEmailSequence")
	}
	if out == nil {
		out = types.SequenceResponse{}
	}
	return out, nil
}

// Mock records enrollments in memory; used when USE_MOCK_MARKETING=true.
type Mock struct {
	mu            sync.Mutex
	subscriptions map[string][]string
	sequences     map[string][]EmailTemplate
}

func NewMock() *Mock {
	return &Mock{subscriptions: map[string][]string{}, sequences: map[string][]EmailTemplate{}}
}

func (m *Mock) SubscribeToCampaign(_ context.Context, p types.CustomerProfile, campaignID string) (types.SubscriptionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions[campaignID] = append(m.subscriptions[campaignID], p.Email)
	return types.SubscriptionResponse{"campaign_id": campaignID, "email": p.Email, "tags": Tags(p), "mock": true}, nil
}

func (m *Mock) CreateEmailSequence(_ context.Context, p types.CustomerProfile) (types.SequenceResponse, error) {
	seq := SequenceFor(types.ParseServiceType(p.ServiceType))
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequences[p.Email] = seq
	return types.SequenceResponse{"customer_email": p.Email, "steps": len(seq), "mock": true}, nil
}

// Subscribers lists the emails subscribed to a campaign.
func (m *Mock) Subscribers(campaignID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.subscriptions[campaignID]...)
}
