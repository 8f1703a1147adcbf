// Package crm registers qualified customer profiles with the CRM system.
package crm

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"leadflow-go/internal/apperr"
	"leadflow-go/internal/transport"
	"leadflow-go/internal/types"
)

type customerPayload struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Phone       string  `json:"phone,omitempty"`
	ServiceType string  `json:"service_type"`
	Source      string  `json:"source,omitempty"`
	LeadScore   float64 `json:"lead_score"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"created_at"`
}

// Client talks to the CRM REST API.
type Client struct {
	http        *transport.Client
	phoneRegion string
	log         *logrus.Entry
}

func NewClient(tc *transport.Client, phoneRegion string, log *logrus.Entry) *Client {
	if phoneRegion == "" {
		phoneRegion = "US"
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Client{http: tc, phoneRegion: phoneRegion, log: log.WithField("module", "crm")}
}

// CreateCustomer posts the profile to /customers. Every failure is an
// IntegrationError; retries happen inside the transport.
func (c *Client) CreateCustomer(ctx context.Context, p types.CustomerProfile) (types.CrmResponse, error) {
	payload := customerPayload{
		ID:          p.ID,
		Name:        p.Name,
		Email:       p.Email,
		Phone:       normalizeE164(p.Phone, c.phoneRegion),
		ServiceType: p.ServiceType,
		Source:      p.Source,
		LeadScore:   p.LeadScore,
		Status:      p.Status,
		CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
	}
	var out types.CrmResponse
	if err := c.http.PostJSON(ctx, "/customers", payload, &out); err != nil {
		c.log.WithField("customer_id", p.ID).WithError(err).Error("CRM integration error")
		return nil, apperr.Integration("failed to create customer", err).WithOp("crm.CreateCustomer")
	}
	if out == nil {
		out = types.CrmResponse{}
	}
	c.log.WithField("customer_id", p.ID).Info("customer created")
	return out, nil
}

// Mock is an in-memory CRM used when USE_MOCK_CRM=true.
type Mock struct {
	mu        sync.Mutex
	customers []types.CustomerProfile
}

func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) CreateCustomer(_ context.Context, p types.CustomerProfile) (types.CrmResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.customers = append(m.customers, p)
	return types.CrmResponse{"id": p.ID, "status": "created", "mock": true}, nil
}

// Customers returns a copy of everything registered so far.
func (m *Mock) Customers() []types.CustomerProfile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]types.CustomerProfile(nil), m.customers...)
}
