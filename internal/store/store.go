package store

import (
	"context"
	"errors"
	"time"

	"firewatch/internal/model"
)

// Store is the persistence interface used by the API server and the
// historical signal gatherer.
type Store interface {
	// Incidents
	CreateIncidents(ctx context.Context, tenantID string, incidents []model.IncidentIn) (importID string, created, skipped int, err error)
	ListIncidents(ctx context.Context, tenantID, status, cursor string, limit int) (items []model.Incident, nextCursor string, err error)
	GetIncident(ctx context.Context, tenantID, id string) (model.Incident, error)
	PatchIncident(ctx context.Context, tenantID, id string, patch model.IncidentPatch) (model.Incident, error)

	// QueryIncidentsSince returns incidents created at or after since. The
	// radius filter is applied by the caller; only the time filter is pushed
	// down here.
	QueryIncidentsSince(ctx context.Context, tenantID string, since time.Time) ([]model.Incident, error)

	// Resources (fleet)
	CreateResource(ctx context.Context, tenantID string, r model.Resource) (model.Resource, error)
	ListResources(ctx context.Context, tenantID, status string) ([]model.Resource, error)
	GetResource(ctx context.Context, tenantID, id string) (model.Resource, error)
	PatchResource(ctx context.Context, tenantID, id string, patch model.ResourcePatch) (model.Resource, error)

	// Subscriptions
	CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error)
	GetSubscriptionsForEvent(ctx context.Context, tenantID, eventType string) ([]model.Subscription, error)
	ListSubscriptions(ctx context.Context, tenantID, cursor string, limit int) ([]model.Subscription, string, error)
	DeleteSubscription(ctx context.Context, tenantID, id string) error

	// Webhook deliveries
	EnqueueWebhook(ctx context.Context, tenantID, subscriptionID, eventType, url, secret string, payload []byte) (string, error)
	FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error)
	MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error
	FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error
}

var ErrNotFound = errors.New("not found")
