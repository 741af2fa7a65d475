package allocator

import (
	"fmt"
	"math"
	"sort"

	"firewatch/internal/config"
	"firewatch/internal/model"
	"firewatch/internal/signals"
)

// capabilityTable scores how well a resource type matches an incident type.
// Unknown combinations fall back to 0.5.
var capabilityTable = map[string]map[string]float64{
	"fire":    {"fire_engine": 1.0, "ladder_truck": 0.9, "rescue_unit": 0.7, "ambulance": 0.3},
	"medical": {"fire_engine": 0.6, "ladder_truck": 0.4, "rescue_unit": 0.8, "ambulance": 1.0},
	"rescue":  {"fire_engine": 0.7, "ladder_truck": 0.9, "rescue_unit": 1.0, "ambulance": 0.6},
	"hazmat":  {"fire_engine": 0.5, "rescue_unit": 0.8, "ambulance": 0.3, "hazmat_unit": 1.0},
}

const (
	defaultCapability = 0.5
	defaultExperience = 0.7
	minResponseMin    = 3.0
)

// Allocator greedily assigns one resource per incident in priority order.
// One call mutates only its own working copy of the pool, so separate calls
// are safe to run concurrently; splitting a single allocation decision across
// callers is not supported.
type Allocator struct {
	Weights config.Weights
}

func New(w config.Weights) *Allocator { return &Allocator{Weights: w} }

type candidate struct {
	resource model.Resource
	total    float64
	distance float64
}

// Optimize builds an allocation plan for the prioritized incidents against
// the resource pool.
func (a *Allocator) Optimize(incidents []model.PrioritizedIncident, resources []model.Resource) model.AllocationPlan {
	ordered := append([]model.PrioritizedIncident(nil), incidents...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority*ordered[i].RiskScore > ordered[j].Priority*ordered[j].RiskScore
	})

	pool := append([]model.Resource(nil), resources...)
	assignedIDs := map[string]bool{}

	plan := model.AllocationPlan{Assignments: []model.Assignment{}}
	for _, inc := range ordered {
		best := a.findOptimal(inc, pool, assignedIDs)
		if best == nil {
			plan.Unassigned = append(plan.Unassigned, inc.ID)
			continue
		}
		eta := best.distance * 2
		if eta < minResponseMin {
			eta = minResponseMin
		}
		conf := best.total / 2
		if conf > 1 {
			conf = 1
		}
		plan.Assignments = append(plan.Assignments, model.Assignment{
			IncidentID:            inc.ID,
			ResourceID:            best.resource.ID,
			EstimatedResponseTime: eta,
			Confidence:            conf,
		})
		assignedIDs[best.resource.ID] = true
		for i, r := range pool {
			if r.ID == best.resource.ID {
				pool = append(pool[:i], pool[i+1:]...)
				break
			}
		}
	}

	plan.Efficiency = efficiency(plan.Assignments)
	plan.Recommendations = a.strategic(ordered, resources, plan)
	return plan
}

// findOptimal scores every candidate and picks the maximum. Nil when the
// pool is empty; the incident stays unassigned, which is reported rather
// than fatal.
func (a *Allocator) findOptimal(inc model.PrioritizedIncident, pool []model.Resource, assigned map[string]bool) *candidate {
	var best *candidate
	for _, r := range pool {
		dist := signals.HaversineKM(inc.Location.Lat, inc.Location.Lng, r.Location.Lat, r.Location.Lng)
		distanceTerm := 1 / math.Max(dist, 0.1)
		capability := capabilityScore(inc.Type, r.Type)
		availability := availabilityScore(r.Status, assigned[r.ID])
		experience := r.ExperienceLevel
		if experience == 0 {
			experience = defaultExperience
		}
		total := distanceTerm*a.Weights.Allocation.Distance +
			capability*a.Weights.Allocation.Capability +
			availability*a.Weights.Allocation.Availability +
			experience*a.Weights.Allocation.Experience
		if best == nil || total > best.total {
			best = &candidate{resource: r, total: total, distance: dist}
		}
	}
	return best
}

func capabilityScore(incidentType, resourceType string) float64 {
	if row, ok := capabilityTable[incidentType]; ok {
		if v, ok := row[resourceType]; ok {
			return v
		}
	}
	return defaultCapability
}

func availabilityScore(status string, alreadyAssigned bool) float64 {
	if alreadyAssigned {
		return 0.2
	}
	switch status {
	case "available":
		return 1.0
	case "maintenance":
		return 0.1
	case "standby":
		return 0.8
	default:
		return 0.6
	}
}

func efficiency(assignments []model.Assignment) float64 {
	if len(assignments) == 0 {
		return 0
	}
	confSum, rtSum := 0.0, 0.0
	for _, a := range assignments {
		confSum += a.Confidence
		rtSum += 1 / math.Max(a.EstimatedResponseTime, 1)
	}
	n := float64(len(assignments))
	return confSum/n*0.6 + rtSum/n*0.4
}

// strategic produces fleet-level guidance for the plan.
func (a *Allocator) strategic(incidents []model.PrioritizedIncident, resources []model.Resource, plan model.AllocationPlan) []model.Recommendation {
	var recs []model.Recommendation

	unassigned := map[string]bool{}
	for _, id := range plan.Unassigned {
		unassigned[id] = true
	}
	for _, inc := range incidents {
		if unassigned[inc.ID] && inc.Priority >= 0.8 {
			recs = append(recs, model.Recommendation{
				Priority: "critical",
				Action:   "mutual_aid",
				Message:  fmt.Sprintf("Critical incident %s has no assigned unit; request immediate mutual aid", inc.ID),
			})
		}
	}

	if len(resources) > 0 {
		utilization := float64(len(plan.Assignments)) / float64(len(resources))
		if utilization > 0.8 {
			recs = append(recs, model.Recommendation{
				Priority: "high",
				Action:   "capacity_warning",
				Message:  fmt.Sprintf("Fleet utilization at %.0f%%; little reserve for new incidents", utilization*100),
			})
		} else if utilization < 0.3 {
			recs = append(recs, model.Recommendation{
				Priority: "medium",
				Action:   "preventive_patrol",
				Message:  "Fleet utilization is low; consider deploying preventive patrols in high-risk areas",
			})
		}
	}
	return recs
}
