package marketing

import "leadflow-go/internal/types"

// EmailTemplate is one step of a drip sequence.
type EmailTemplate struct {
	Subject   string `json:"subject"`
	Content   string `json:"content"`
	DelayDays int    `json:"delay_days"`
}

var residentialSequence = []EmailTemplate{
	{Subject: "Transform Your Living Space", Content: "Personalized home organization tips...", DelayDays: 0},
	{Subject: "Free Consultation Invite", Content: "Exclusive offer for home organization...", DelayDays: 3},
}

var commercialSequence = []EmailTemplate{
	{Subject: "Optimize Your Workspace Efficiency", Content: "Strategies for better office organization...", DelayDays: 0},
	{Subject: "Custom Office Solution Walkthrough", Content: "Tailored organizational strategies...", DelayDays: 5},
}

// SequenceFor returns a copy of the sequence for a service type.
// Types without their own sequence get the residential one.
func SequenceFor(svc types.ServiceType) []EmailTemplate {
	var seq []EmailTemplate
	switch svc {
	case types.ServiceCommercial:
		seq = commercialSequence
	default:
		seq = residentialSequence
	}
	return append([]EmailTemplate(nil), seq...)
}
