package api

import (
	"fmt"

	"firewatch/internal/model"
)

var resourceTypes = map[string]struct{}{
	"fire_engine": {}, "ladder_truck": {}, "rescue_unit": {}, "ambulance": {}, "hazmat_unit": {},
}

func validateResource(r *model.Resource) error {
	if _, ok := resourceTypes[r.Type]; !ok {
		return fmt.Errorf("invalid resource type: %s", r.Type)
	}
	if r.ExperienceLevel < 0 || r.ExperienceLevel > 1 {
		return fmt.Errorf("experienceLevel must be in [0,1]")
	}
	switch r.Status {
	case "", "available", "standby", "maintenance":
	default:
		return fmt.Errorf("invalid resource status: %s", r.Status)
	}
	return nil
}

func validateAllocationRequest(incidents []model.PrioritizedIncident, resources []model.Resource) error {
	for i, inc := range incidents {
		if inc.ID == "" {
			return fmt.Errorf("incident %d missing id", i)
		}
		if inc.Priority < 0 || inc.Priority > 1 {
			return fmt.Errorf("incident %s priority must be in [0,1]", inc.ID)
		}
		if inc.RiskScore < 0 || inc.RiskScore > 1 {
			return fmt.Errorf("incident %s riskScore must be in [0,1]", inc.ID)
		}
	}
	for i, r := range resources {
		if r.ID == "" {
			return fmt.Errorf("resource %d missing id", i)
		}
	}
	return nil
}

func validateSubscription(req *model.SubscriptionRequest) error {
	if req.URL == "" {
		return fmt.Errorf("url required")
	}
	if len(req.Events) == 0 {
		return fmt.Errorf("at least one event required")
	}
	return nil
}
