package insight

import (
	"leadflow-go/internal/types"
)

// Action thresholds. A score equal to a threshold falls in the lower band.
const (
	OutreachThreshold = 0.8
	NurtureThreshold  = 0.5
)

// DefaultService is offered when no size/service pair matches.
const DefaultService = "Custom Consultation"

// Generate derives the follow-up decision for a scored lead.
func Generate(score float64, lead types.LeadRecord) types.QualificationInsight {
	return types.QualificationInsight{
		QualificationScore: score,
		RecommendedAction:  DetermineAction(score),
		MatchedService:     MatchService(lead),
	}
}

func DetermineAction(score float64) types.Action {
	switch {
	case score > OutreachThreshold:
		return types.ActionImmediateOutreach
	case score > NurtureThreshold:
		return types.ActionNurture
	default:
		return types.ActionLowPriority
	}
}

// MatchService looks up the offering for "{property_size}_{service_type}".
func MatchService(lead types.LeadRecord) string {
	size, _ := lead.Text(types.FieldPropertySize)
	svc, _ := lead.Text(types.FieldServiceType)
	return serviceFor(types.ParsePropertySize(size), types.ParseServiceType(svc))
}

func serviceFor(size types.PropertySize, svc types.ServiceType) string {
	switch {
	case size == types.SizeSmall && svc == types.ServiceResidential:
		return "Closet & Room Optimization"
	case size == types.SizeMedium && svc == types.ServiceCommercial:
		return "Office Workflow Solutions"
	case size == types.SizeLarge && svc == types.ServiceIndustrial:
		return "Comprehensive Inventory Management"
	default:
		return DefaultService
	}
}
