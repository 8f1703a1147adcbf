package types

import (
	"fmt"
	"strings"
)

// Action is the follow-up recommended for a lead.
type Action int

const (
	ActionLowPriority Action = iota
	ActionNurture
	ActionImmediateOutreach
)

func (a Action) String() string {
	switch a {
	case ActionImmediateOutreach:
		return "IMMEDIATE_OUTREACH"
	case ActionNurture:
		return "NURTURE"
	case ActionLowPriority:
		return "LOW_PRIORITY"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// Label is the status text written to the CRM.
func (a Action) Label() string {
	switch a {
	case ActionImmediateOutreach:
		return "Immediate Personal Outreach"
	case ActionNurture:
		return "Nurture with Targeted Content"
	case ActionLowPriority:
		return "Low Priority / Monitoring"
	default:
		return a.String()
	}
}

func (a Action) MarshalText() ([]byte, error) {
	switch a {
	case ActionImmediateOutreach, ActionNurture, ActionLowPriority:
		return []byte(a.String()), nil
	default:
		return nil, fmt.Errorf("invalid action %d", int(a))
	}
}

func (a *Action) UnmarshalText(b []byte) error {
	switch string(b) {
	case "IMMEDIATE_OUTREACH":
		*a = ActionImmediateOutreach
	case "NURTURE":
		*a = ActionNurture
	case "LOW_PRIORITY":
		*a = ActionLowPriority
	default:
		return fmt.Errorf("unknown action %q", string(b))
	}
	return nil
}

// ServiceType is the line of business a lead asked about.
type ServiceType int

const (
	ServiceUnknown ServiceType = iota
	ServiceResidential
	ServiceCommercial
	ServiceIndustrial
)

// ParseServiceType maps free text to a ServiceType; anything else is ServiceUnknown.
func ParseServiceType(s string) ServiceType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "residential":
		return ServiceResidential
	case "commercial":
		return ServiceCommercial
	case "industrial":
		return ServiceIndustrial
	default:
		return ServiceUnknown
	}
}

func (s ServiceType) String() string {
	switch s {
	case ServiceResidential:
		return "residential"
	case ServiceCommercial:
		return "commercial"
	case ServiceIndustrial:
		return "industrial"
	default:
		return "unknown"
	}
}

// PropertySize is the coarse size bucket of the customer's space.
type PropertySize int

const (
	SizeUnknown PropertySize = iota
	SizeSmall
	SizeMedium
	SizeLarge
)

func ParsePropertySize(s string) PropertySize {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "small":
		return SizeSmall
	case "medium":
		return SizeMedium
	case "large":
		return SizeLarge
	default:
		return SizeUnknown
	}
}

func (p PropertySize) String() string {
	switch p {
	case SizeSmall:
		return "small"
	case SizeMedium:
		return "medium"
	case SizeLarge:
		return "large"
	default:
		return "unknown"
	}
}
