package model

import "time"

// Core domain types shared across the scoring pipeline and the API.

type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// IncidentIn is a citizen report as submitted to the API.
type IncidentIn struct {
	ExternalRef string     `json:"externalRef,omitempty"`
	Type        string     `json:"type,omitempty"` // fire, medical, rescue, hazmat
	Description string     `json:"description,omitempty"`
	Location    *GeoPoint  `json:"location,omitempty"`
	Media       []MediaRef `json:"media,omitempty"`
	ReportedAt  string     `json:"reportedAt,omitempty"` // RFC3339; defaults to now
}

type MediaRef struct {
	URL  string `json:"url"`
	Kind string `json:"kind,omitempty"` // photo, video
}

// Incident is the stored record.
type Incident struct {
	ID           string     `json:"id"`
	TenantID     string     `json:"tenantId"`
	ExternalRef  string     `json:"externalRef,omitempty"`
	Type         string     `json:"type,omitempty"`
	Description  string     `json:"description,omitempty"`
	Location     GeoPoint   `json:"location"`
	Media        []MediaRef `json:"media,omitempty"`
	Status       string     `json:"status"` // reported, dispatched, resolved
	Severity     string     `json:"severity,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	DispatchedAt *time.Time `json:"dispatchedAt,omitempty"`
	ResolvedAt   *time.Time `json:"resolvedAt,omitempty"`
}

type IncidentPatch struct {
	Status   string `json:"status,omitempty"`
	Severity string `json:"severity,omitempty"`
}

// WeatherSignal is one gathered factor bundle. Regenerated per request.
type WeatherSignal struct {
	Temperature   float64 `json:"temperature"` // celsius
	Humidity      float64 `json:"humidity"`    // percent
	WindSpeed     float64 `json:"windSpeed"`
	Precipitation float64 `json:"precipitation"`
	DroughtIndex  float64 `json:"droughtIndex"` // [0,1]
}

type EnvironmentalSignal struct {
	VegetationDryness float64 `json:"vegetationDryness"` // [0,1]
	AirQuality        float64 `json:"airQuality"`        // AQI-like, lower is worse below 50
	ProximityToRisk   float64 `json:"proximityToRisk"`   // [0,1]
	BuildingDensity   float64 `json:"buildingDensity"`   // [0,1]
}

type HistoricalSummary struct {
	TotalIncidents      int              `json:"totalIncidents"`
	AverageResponseTime float64          `json:"averageResponseTime"` // minutes
	SeasonalPattern     *SeasonalPattern `json:"seasonalPattern,omitempty"`
	TimePattern         *TimePattern     `json:"timePattern,omitempty"`
}

type SeasonalPattern struct {
	Counts         map[string]int `json:"counts"`
	PeakSeason     string         `json:"peakSeason"`
	CurrentSeason  string         `json:"currentSeason"`
	RiskMultiplier float64        `json:"riskMultiplier"` // floored at 0.5
}

type TimePattern struct {
	Hourly         [24]int `json:"hourly"`
	PeakHour       int     `json:"peakHour"`
	PeakPeriod     string  `json:"peakPeriod"`     // morning, afternoon, evening, night
	RiskMultiplier float64 `json:"riskMultiplier"` // floored at 0.3
}

// RiskLevel is ordered MINIMAL < LOW < MODERATE < HIGH < EXTREME.
type RiskLevel string

const (
	RiskMinimal  RiskLevel = "MINIMAL"
	RiskLow      RiskLevel = "LOW"
	RiskModerate RiskLevel = "MODERATE"
	RiskHigh     RiskLevel = "HIGH"
	RiskExtreme  RiskLevel = "EXTREME"
)

// Rank returns the ordinal of the level, MINIMAL being 0.
func (l RiskLevel) Rank() int {
	switch l {
	case RiskLow:
		return 1
	case RiskModerate:
		return 2
	case RiskHigh:
		return 3
	case RiskExtreme:
		return 4
	}
	return 0
}

type PriorityLevel string

const (
	PriorityLow      PriorityLevel = "LOW"
	PriorityMedium   PriorityLevel = "MEDIUM"
	PriorityHigh     PriorityLevel = "HIGH"
	PriorityCritical PriorityLevel = "CRITICAL"
)

func (l PriorityLevel) Rank() int {
	switch l {
	case PriorityMedium:
		return 1
	case PriorityHigh:
		return 2
	case PriorityCritical:
		return 3
	}
	return 0
}

// EscalationLevel uses the risk cut points but a CRITICAL top label.
type EscalationLevel string

const (
	EscalationMinimal  EscalationLevel = "MINIMAL"
	EscalationLow      EscalationLevel = "LOW"
	EscalationModerate EscalationLevel = "MODERATE"
	EscalationHigh     EscalationLevel = "HIGH"
	EscalationCritical EscalationLevel = "CRITICAL"
)

type Recommendation struct {
	Priority string `json:"priority"` // critical, high, medium
	Action   string `json:"action"`
	Message  string `json:"message"`
}

type RiskFactors struct {
	Weather       WeatherSignal       `json:"weather"`
	Historical    HistoricalSummary   `json:"historical"`
	Environmental EnvironmentalSignal `json:"environmental"`
}

type RiskAssessment struct {
	RiskScore       float64          `json:"riskScore"`
	RiskLevel       RiskLevel        `json:"riskLevel"`
	Recommendations []Recommendation `json:"recommendations"`
	Factors         RiskFactors      `json:"factors"`
	Timestamp       time.Time        `json:"timestamp"`
	Degraded        bool             `json:"degraded,omitempty"`
}

type TextAnalysis struct {
	UrgencyScore  float64  `json:"urgencyScore"`
	SeverityScore float64  `json:"severityScore"`
	Confidence    float64  `json:"confidence"`
	KeyPhrases    []string `json:"keyPhrases,omitempty"`
}

// MediaAnalysis is the vision provider contract. A nil value selects the
// no-media branch of the priority formula.
type MediaAnalysis struct {
	FireDetected     bool    `json:"fireDetected"`
	SmokeDetected    bool    `json:"smokeDetected"`
	StructuralDamage bool    `json:"structuralDamage"`
	PeopleDetected   bool    `json:"peopleDetected"`
	Confidence       float64 `json:"confidence"`
}

type ResponsePlan struct {
	ResponseType          string   `json:"responseType"` // standard, urgent, immediate
	RecommendedUnits      int      `json:"recommendedUnits"`
	EstimatedResponseTime string   `json:"estimatedResponseTime"` // range, e.g. "4-8 minutes"
	SpecialEquipment      []string `json:"specialEquipment"`
	AdditionalResources   []string `json:"additionalResources"`
}

type TriageAnalysis struct {
	Text     TextAnalysis   `json:"text"`
	Media    *MediaAnalysis `json:"media,omitempty"`
	Location RiskAssessment `json:"location"`
}

type TriageResult struct {
	PriorityScore          float64        `json:"priorityScore"`
	PriorityLevel          PriorityLevel  `json:"priorityLevel"`
	Confidence             float64        `json:"confidence"`
	ResponseRecommendation ResponsePlan   `json:"responseRecommendation"`
	Analysis               TriageAnalysis `json:"analysis"`
	EstimatedSeverity      string         `json:"estimatedSeverity"` // minor, moderate, major, critical
	Timestamp              time.Time      `json:"timestamp"`
}

// Resource is one fleet unit. Consumed read-only by the allocator.
type Resource struct {
	ID              string   `json:"id"`
	TenantID        string   `json:"tenantId,omitempty"`
	Type            string   `json:"type"` // fire_engine, ladder_truck, rescue_unit, ambulance, hazmat_unit
	Location        GeoPoint `json:"location"`
	Status          string   `json:"status"`                    // available, standby, maintenance
	ExperienceLevel float64  `json:"experienceLevel,omitempty"` // [0,1], default 0.7
	StationID       string   `json:"stationId,omitempty"`
}

type ResourcePatch struct {
	Status   string    `json:"status,omitempty"`
	Location *GeoPoint `json:"location,omitempty"`
}

// PrioritizedIncident is the allocator's view of an incident. Priority and
// RiskScore are caller-supplied, typically copied from triage results.
type PrioritizedIncident struct {
	ID        string   `json:"id"`
	Type      string   `json:"type"`
	Location  GeoPoint `json:"location"`
	Priority  float64  `json:"priority"`  // [0,1]
	RiskScore float64  `json:"riskScore"` // [0,1]
}

type Assignment struct {
	IncidentID            string  `json:"incidentId"`
	ResourceID            string  `json:"resourceId"`
	EstimatedResponseTime float64 `json:"estimatedResponseTime"` // minutes
	Confidence            float64 `json:"confidence"`
}

type AllocationPlan struct {
	Assignments     []Assignment     `json:"assignments"`
	Unassigned      []string         `json:"unassigned,omitempty"` // incident ids left without a unit
	Efficiency      float64          `json:"efficiency"`
	Recommendations []Recommendation `json:"recommendations,omitempty"`
}

// ActiveIncident is the escalation predictor's input.
type ActiveIncident struct {
	ID                  string   `json:"id"`
	Location            GeoPoint `json:"location"`
	Severity            string   `json:"severity"`     // low, medium, high, critical
	StartedAt           string   `json:"startedAt"`    // RFC3339
	ResponseTime        float64  `json:"responseTime"` // minutes to first unit on scene
	ResourcesDeployed   int      `json:"resourcesDeployed"`
	PersonnelExperience float64  `json:"personnelExperience"` // [0,1]
}

type Checkpoint struct {
	TimeMinutes int    `json:"timeMinutes"`
	Action      string `json:"action"`
}

type EscalationTimeline struct {
	EstimatedTimeToEscalation float64      `json:"estimatedTimeToEscalation"` // minutes, never below 15
	Confidence                float64      `json:"confidence"`
	CriticalFactors           []string     `json:"criticalFactors,omitempty"`
	RecommendedCheckpoints    []Checkpoint `json:"recommendedCheckpoints"`
}

type EscalationFactors struct {
	Environmental EnvironmentalSignal `json:"environmental"`
	ResponseScore float64             `json:"responseScore"`
	IncidentScore float64             `json:"incidentScore"`
}

type EscalationPrediction struct {
	Probability       float64            `json:"probability"`
	RiskLevel         EscalationLevel    `json:"riskLevel"`
	Timeline          EscalationTimeline `json:"timeline"`
	PreventionActions []Recommendation   `json:"preventionActions,omitempty"`
	Factors           EscalationFactors  `json:"factors"`
	Recommendations   []Recommendation   `json:"recommendations,omitempty"`
	Timestamp         time.Time          `json:"timestamp"`
}

// Webhook subscription models, tenant scoped.
type SubscriptionRequest struct {
	TenantID string   `json:"tenantId"`
	URL      string   `json:"url"`
	Events   []string `json:"events"`
	Secret   string   `json:"secret"`
}

type Subscription struct {
	ID       string   `json:"id"`
	TenantID string   `json:"tenantId"`
	URL      string   `json:"url"`
	Events   []string `json:"events"`
	Secret   string   `json:"secret,omitempty"`
}
