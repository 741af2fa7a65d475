package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"firewatch/internal/model"
)

// Memory is a simple in-memory store used when no DATABASE_URL is set.
type Memory struct {
	mu        sync.Mutex
	incidents map[string]model.Incident // id -> incident
	incTen    map[string][]string       // tenant -> incident ids, insertion order
	resources map[string]model.Resource // id -> resource
	resTen    map[string][]string       // tenant -> resource ids
	subs      map[string][]model.Subscription

	deliveries map[string]*memDelivery
	dueOrder   []string
}

func NewMemory() *Memory {
	return &Memory{
		incidents:  map[string]model.Incident{},
		incTen:     map[string][]string{},
		resources:  map[string]model.Resource{},
		resTen:     map[string][]string{},
		subs:       map[string][]model.Subscription{},
		deliveries: map[string]*memDelivery{},
	}
}

// memDelivery augments WebhookDelivery with scheduling state.
type memDelivery struct {
	WebhookDelivery
	NextAttemptAt time.Time
	LastError     string
	ResponseCode  int
	LatencyMs     int
	DeliveredAt   *time.Time
}

func (m *Memory) CreateIncidents(ctx context.Context, tenantID string, incidents []model.IncidentIn) (string, int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	importID := "imp_" + uuid.NewString()[:8]
	created, skipped := 0, 0
	for _, in := range incidents {
		if in.ExternalRef != "" && m.hasExternalRef(tenantID, in.ExternalRef) {
			skipped++
			continue
		}
		inc := model.Incident{
			ID:          uuid.NewString(),
			TenantID:    tenantID,
			ExternalRef: in.ExternalRef,
			Type:        in.Type,
			Description: in.Description,
			Media:       in.Media,
			Status:      "reported",
			CreatedAt:   time.Now().UTC(),
		}
		if in.Location != nil {
			inc.Location = *in.Location
		}
		if in.ReportedAt != "" {
			if t, err := time.Parse(time.RFC3339, in.ReportedAt); err == nil {
				inc.CreatedAt = t.UTC()
			}
		}
		m.incidents[inc.ID] = inc
		m.incTen[tenantID] = append(m.incTen[tenantID], inc.ID)
		created++
	}
	return importID, created, skipped, nil
}

func (m *Memory) hasExternalRef(tenantID, ref string) bool {
	for _, id := range m.incTen[tenantID] {
		if m.incidents[id].ExternalRef == ref {
			return true
		}
	}
	return false
}

func (m *Memory) ListIncidents(ctx context.Context, tenantID, status, cursor string, limit int) ([]model.Incident, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := m.incTen[tenantID]
	start := 0
	if cursor != "" {
		for i, id := range ids {
			if id == cursor {
				start = i + 1
				break
			}
		}
	}
	if limit <= 0 {
		limit = 100
	}
	out := []model.Incident{}
	var next string
	for i := start; i < len(ids) && len(out) < limit; i++ {
		inc := m.incidents[ids[i]]
		if status == "" || inc.Status == status {
			out = append(out, inc)
		}
		next = ids[i]
	}
	if len(out) < limit {
		next = ""
	}
	return out, next, nil
}

func (m *Memory) GetIncident(ctx context.Context, tenantID, id string) (model.Incident, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inc, ok := m.incidents[id]
	if !ok || inc.TenantID != tenantID {
		return model.Incident{}, ErrNotFound
	}
	return inc, nil
}

func (m *Memory) PatchIncident(ctx context.Context, tenantID, id string, patch model.IncidentPatch) (model.Incident, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inc, ok := m.incidents[id]
	if !ok || inc.TenantID != tenantID {
		return model.Incident{}, ErrNotFound
	}
	now := time.Now().UTC()
	if patch.Status != "" && patch.Status != inc.Status {
		inc.Status = patch.Status
		switch patch.Status {
		case "dispatched":
			inc.DispatchedAt = &now
		case "resolved":
			inc.ResolvedAt = &now
		}
	}
	if patch.Severity != "" {
		inc.Severity = patch.Severity
	}
	m.incidents[id] = inc
	return inc, nil
}

func (m *Memory) QueryIncidentsSince(ctx context.Context, tenantID string, since time.Time) ([]model.Incident, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Incident{}
	for _, id := range m.incTen[tenantID] {
		inc := m.incidents[id]
		if !inc.CreatedAt.Before(since) {
			out = append(out, inc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) CreateResource(ctx context.Context, tenantID string, r model.Resource) (model.Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.TenantID = tenantID
	if r.Status == "" {
		r.Status = "available"
	}
	m.resources[r.ID] = r
	m.resTen[tenantID] = append(m.resTen[tenantID], r.ID)
	return r, nil
}

func (m *Memory) ListResources(ctx context.Context, tenantID, status string) ([]model.Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Resource{}
	for _, id := range m.resTen[tenantID] {
		r := m.resources[id]
		if status == "" || r.Status == status {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *Memory) GetResource(ctx context.Context, tenantID, id string) (model.Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.resources[id]
	if !ok || r.TenantID != tenantID {
		return model.Resource{}, ErrNotFound
	}
	return r, nil
}

func (m *Memory) PatchResource(ctx context.Context, tenantID, id string, patch model.ResourcePatch) (model.Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.resources[id]
	if !ok || r.TenantID != tenantID {
		return model.Resource{}, ErrNotFound
	}
	if patch.Status != "" {
		r.Status = patch.Status
	}
	if patch.Location != nil {
		r.Location = *patch.Location
	}
	m.resources[id] = r
	return r, nil
}

func (m *Memory) CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub := model.Subscription{
		ID:       uuid.NewString(),
		TenantID: req.TenantID,
		URL:      req.URL,
		Events:   req.Events,
		Secret:   req.Secret,
	}
	m.subs[req.TenantID] = append(m.subs[req.TenantID], sub)
	return sub, nil
}

func (m *Memory) GetSubscriptionsForEvent(ctx context.Context, tenantID, eventType string) ([]model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Subscription{}
	for _, s := range m.subs[tenantID] {
		for _, e := range s.Events {
			if e == eventType || e == "*" {
				out = append(out, s)
				break
			}
		}
	}
	return out, nil
}

func (m *Memory) ListSubscriptions(ctx context.Context, tenantID, cursor string, limit int) ([]model.Subscription, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.subs[tenantID]
	start := 0
	if cursor != "" {
		for i, s := range all {
			if s.ID == cursor {
				start = i + 1
				break
			}
		}
	}
	if limit <= 0 {
		limit = 100
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	out := append([]model.Subscription{}, all[start:end]...)
	next := ""
	if end < len(all) && len(out) > 0 {
		next = out[len(out)-1].ID
	}
	return out, next, nil
}

func (m *Memory) DeleteSubscription(ctx context.Context, tenantID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.subs[tenantID]
	for i, s := range all {
		if s.ID == id {
			m.subs[tenantID] = append(all[:i], all[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) EnqueueWebhook(ctx context.Context, tenantID, subscriptionID, eventType, url, secret string, payload []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.NewString()
	m.deliveries[id] = &memDelivery{
		WebhookDelivery: WebhookDelivery{
			ID:             id,
			TenantID:       tenantID,
			SubscriptionID: subscriptionID,
			EventType:      eventType,
			URL:            url,
			Secret:         secret,
			Payload:        payload,
			Status:         "pending",
		},
		NextAttemptAt: time.Now(),
	}
	m.dueOrder = append(m.dueOrder, id)
	return id, nil
}

func (m *Memory) FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	out := []WebhookDelivery{}
	for _, id := range m.dueOrder {
		d, ok := m.deliveries[id]
		if !ok || d.Status != "pending" || d.NextAttemptAt.After(now) {
			continue
		}
		out = append(out, d.WebhookDelivery)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *Memory) MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deliveries[id]
	if !ok {
		return ErrNotFound
	}
	d.Attempts++
	d.LastError = lastError
	d.ResponseCode = responseCode
	d.LatencyMs = latencyMs
	if success {
		now := time.Now()
		d.Status = "delivered"
		d.DeliveredAt = &now
	} else if nextAttemptAt != nil {
		d.NextAttemptAt = *nextAttemptAt
	}
	return nil
}

func (m *Memory) FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deliveries[id]
	if !ok {
		return ErrNotFound
	}
	d.Attempts++
	d.Status = "failed"
	d.LastError = lastError
	d.ResponseCode = responseCode
	d.LatencyMs = latencyMs
	return nil
}
