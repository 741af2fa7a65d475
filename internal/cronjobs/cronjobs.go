package cronjobs

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"firewatch/internal/api"
	"firewatch/internal/model"
	"firewatch/internal/triage"
	"firewatch/internal/webhooks"
)

// Sweeper runs the scheduled risk sweep: every tick it re-assesses each watch
// location and raises an alert when the risk reads HIGH or above.
type Sweeper struct {
	Engine   *triage.Engine
	Broker   api.EventBroker
	Pub      *webhooks.Publisher
	Tenant   string
	Schedule string
	Points   []model.GeoPoint

	cron *cron.Cron
}

func New(engine *triage.Engine, broker api.EventBroker, pub *webhooks.Publisher, tenant, schedule string, locations []string) (*Sweeper, error) {
	s := &Sweeper{Engine: engine, Broker: broker, Pub: pub, Tenant: tenant, Schedule: schedule}
	for _, raw := range locations {
		p, err := parsePoint(raw)
		if err != nil {
			return nil, fmt.Errorf("watch location %q: %w", raw, err)
		}
		s.Points = append(s.Points, p)
	}
	return s, nil
}

// Start schedules the sweep. A sweeper with no watch locations is a no-op.
func (s *Sweeper) Start() error {
	if len(s.Points) == 0 {
		log.Println("risk sweep: no watch locations configured, sweep disabled")
		return nil
	}
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.Schedule, s.RunOnce); err != nil {
		return fmt.Errorf("schedule risk sweep: %w", err)
	}
	s.cron.Start()
	log.Printf("risk sweep: scheduled %q over %d locations", s.Schedule, len(s.Points))
	return nil
}

func (s *Sweeper) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// RunOnce sweeps all watch locations immediately. Exported so operators can
// trigger it outside the schedule.
func (s *Sweeper) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for _, p := range s.Points {
		point := p
		assessment := s.Engine.CalculateFireRiskScore(ctx, s.Tenant, &point)
		if assessment.RiskLevel.Rank() < model.RiskHigh.Rank() {
			continue
		}
		log.Printf("risk sweep: %s at (%.4f, %.4f), score %.3f", assessment.RiskLevel, point.Lat, point.Lng, assessment.RiskScore)
		data := map[string]any{
			"location":  point,
			"riskScore": assessment.RiskScore,
			"riskLevel": assessment.RiskLevel,
			"degraded":  assessment.Degraded,
		}
		if s.Broker != nil {
			s.Broker.Publish(s.Tenant, api.Event{Type: "risk.alert", Data: data})
		}
		if s.Pub != nil {
			s.Pub.Emit(ctx, s.Tenant, "risk.alert", data)
		}
	}
}

func parsePoint(raw string) (model.GeoPoint, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return model.GeoPoint{}, fmt.Errorf("want \"lat,lng\"")
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return model.GeoPoint{}, err
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return model.GeoPoint{}, err
	}
	return model.GeoPoint{Lat: lat, Lng: lng}, nil
}
