package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"firewatch/internal/model"
)

type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &Postgres{db: db}, nil
}

// MigrateDir applies *.sql files from dir in lexical order. Dev helper; a
// production deployment runs migrations out of band.
func (p *Postgres) MigrateDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	names := []string{}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, n := range names {
		data, err := os.ReadFile(filepath.Join(dir, n))
		if err != nil {
			return err
		}
		if _, err := p.db.Exec(string(data)); err != nil {
			return fmt.Errorf("migration %s: %w", n, err)
		}
	}
	return nil
}

func (p *Postgres) CreateIncidents(ctx context.Context, tenantID string, incidents []model.IncidentIn) (string, int, int, error) {
	importID := fmt.Sprintf("imp_%d", time.Now().UnixNano())
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", 0, 0, err
	}
	defer func() { _ = tx.Rollback() }()

	created, skipped := 0, 0
	for _, in := range incidents {
		if in.ExternalRef != "" {
			var existsID string
			err = tx.QueryRowContext(ctx, `SELECT id::text FROM incidents WHERE tenant_id=$1 AND external_ref=$2`, tenantID, in.ExternalRef).Scan(&existsID)
			if err == nil {
				skipped++
				continue
			}
			if !errors.Is(err, sql.ErrNoRows) {
				return "", 0, 0, err
			}
		}
		var lat, lng any
		if in.Location != nil {
			lat, lng = in.Location.Lat, in.Location.Lng
		}
		createdAt := time.Now().UTC()
		if in.ReportedAt != "" {
			if t, perr := time.Parse(time.RFC3339, in.ReportedAt); perr == nil {
				createdAt = t.UTC()
			}
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO incidents (id, tenant_id, external_ref, type, description, lat, lng, media, status, created_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			uuid.New(), tenantID, nullIfEmpty(in.ExternalRef), nullIfEmpty(in.Type), in.Description, lat, lng, toJSON(in.Media), "reported", createdAt)
		if err != nil {
			return "", 0, 0, err
		}
		created++
	}
	if err := tx.Commit(); err != nil {
		return "", 0, 0, err
	}
	return importID, created, skipped, nil
}

const incidentCols = `id::text, tenant_id, COALESCE(external_ref,''), COALESCE(type,''), COALESCE(description,''),
	COALESCE(lat,0), COALESCE(lng,0), COALESCE(media,'[]'::jsonb)::text, status, COALESCE(severity,''),
	created_at, dispatched_at, resolved_at`

func scanIncident(row interface{ Scan(...any) error }) (model.Incident, error) {
	var inc model.Incident
	var media string
	err := row.Scan(&inc.ID, &inc.TenantID, &inc.ExternalRef, &inc.Type, &inc.Description,
		&inc.Location.Lat, &inc.Location.Lng, &media, &inc.Status, &inc.Severity,
		&inc.CreatedAt, &inc.DispatchedAt, &inc.ResolvedAt)
	if err != nil {
		return inc, err
	}
	if media != "" && media != "[]" {
		_ = json.Unmarshal([]byte(media), &inc.Media)
	}
	return inc, nil
}

func (p *Postgres) ListIncidents(ctx context.Context, tenantID, status, cursor string, limit int) ([]model.Incident, string, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `SELECT ` + incidentCols + ` FROM incidents WHERE tenant_id=$1`
	args := []any{tenantID}
	if status != "" {
		args = append(args, status)
		q += fmt.Sprintf(` AND status=$%d`, len(args))
	}
	if cursor != "" {
		args = append(args, cursor)
		q += fmt.Sprintf(` AND id > $%d::uuid`, len(args))
	}
	args = append(args, limit)
	q += fmt.Sprintf(` ORDER BY id LIMIT $%d`, len(args))

	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()
	out := []model.Incident{}
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, "", err
		}
		out = append(out, inc)
	}
	next := ""
	if len(out) == limit {
		next = out[len(out)-1].ID
	}
	return out, next, rows.Err()
}

func (p *Postgres) GetIncident(ctx context.Context, tenantID, id string) (model.Incident, error) {
	row := p.db.QueryRowContext(ctx, `SELECT `+incidentCols+` FROM incidents WHERE tenant_id=$1 AND id=$2::uuid`, tenantID, id)
	inc, err := scanIncident(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Incident{}, ErrNotFound
	}
	return inc, err
}

func (p *Postgres) PatchIncident(ctx context.Context, tenantID, id string, patch model.IncidentPatch) (model.Incident, error) {
	now := time.Now().UTC()
	if patch.Status != "" {
		var stampCol string
		switch patch.Status {
		case "dispatched":
			stampCol = "dispatched_at"
		case "resolved":
			stampCol = "resolved_at"
		}
		q := `UPDATE incidents SET status=$3`
		if stampCol != "" {
			q += `, ` + stampCol + `=$4`
		}
		q += ` WHERE tenant_id=$1 AND id=$2::uuid`
		args := []any{tenantID, id, patch.Status}
		if stampCol != "" {
			args = append(args, now)
		}
		if _, err := p.db.ExecContext(ctx, q, args...); err != nil {
			return model.Incident{}, err
		}
	}
	if patch.Severity != "" {
		if _, err := p.db.ExecContext(ctx, `UPDATE incidents SET severity=$3 WHERE tenant_id=$1 AND id=$2::uuid`, tenantID, id, patch.Severity); err != nil {
			return model.Incident{}, err
		}
	}
	return p.GetIncident(ctx, tenantID, id)
}

func (p *Postgres) QueryIncidentsSince(ctx context.Context, tenantID string, since time.Time) ([]model.Incident, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT `+incidentCols+` FROM incidents WHERE tenant_id=$1 AND created_at >= $2 ORDER BY created_at`, tenantID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Incident{}
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inc)
	}
	return out, rows.Err()
}

func (p *Postgres) CreateResource(ctx context.Context, tenantID string, r model.Resource) (model.Resource, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.TenantID = tenantID
	if r.Status == "" {
		r.Status = "available"
	}
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO resources (id, tenant_id, type, lat, lng, status, experience_level, station_id)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		r.ID, tenantID, r.Type, r.Location.Lat, r.Location.Lng, r.Status, r.ExperienceLevel, nullIfEmpty(r.StationID))
	return r, err
}

const resourceCols = `id::text, tenant_id, type, COALESCE(lat,0), COALESCE(lng,0), status, COALESCE(experience_level,0), COALESCE(station_id,'')`

func (p *Postgres) ListResources(ctx context.Context, tenantID, status string) ([]model.Resource, error) {
	q := `SELECT ` + resourceCols + ` FROM resources WHERE tenant_id=$1`
	args := []any{tenantID}
	if status != "" {
		args = append(args, status)
		q += ` AND status=$2`
	}
	q += ` ORDER BY id`
	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Resource{}
	for rows.Next() {
		var r model.Resource
		if err := rows.Scan(&r.ID, &r.TenantID, &r.Type, &r.Location.Lat, &r.Location.Lng, &r.Status, &r.ExperienceLevel, &r.StationID); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *Postgres) GetResource(ctx context.Context, tenantID, id string) (model.Resource, error) {
	var r model.Resource
	err := p.db.QueryRowContext(ctx, `SELECT `+resourceCols+` FROM resources WHERE tenant_id=$1 AND id=$2::uuid`, tenantID, id).
		Scan(&r.ID, &r.TenantID, &r.Type, &r.Location.Lat, &r.Location.Lng, &r.Status, &r.ExperienceLevel, &r.StationID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Resource{}, ErrNotFound
	}
	return r, err
}

func (p *Postgres) PatchResource(ctx context.Context, tenantID, id string, patch model.ResourcePatch) (model.Resource, error) {
	if patch.Status != "" {
		if _, err := p.db.ExecContext(ctx, `UPDATE resources SET status=$3 WHERE tenant_id=$1 AND id=$2::uuid`, tenantID, id, patch.Status); err != nil {
			return model.Resource{}, err
		}
	}
	if patch.Location != nil {
		if _, err := p.db.ExecContext(ctx, `UPDATE resources SET lat=$3, lng=$4 WHERE tenant_id=$1 AND id=$2::uuid`, tenantID, id, patch.Location.Lat, patch.Location.Lng); err != nil {
			return model.Resource{}, err
		}
	}
	return p.GetResource(ctx, tenantID, id)
}

func (p *Postgres) CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error) {
	sub := model.Subscription{ID: uuid.NewString(), TenantID: req.TenantID, URL: req.URL, Events: req.Events, Secret: req.Secret}
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO subscriptions (id, tenant_id, url, events, secret) VALUES ($1,$2,$3,$4,$5)`,
		sub.ID, sub.TenantID, sub.URL, toJSON(sub.Events), sub.Secret)
	return sub, err
}

func (p *Postgres) GetSubscriptionsForEvent(ctx context.Context, tenantID, eventType string) ([]model.Subscription, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id::text, tenant_id, url, events::text, secret FROM subscriptions
		 WHERE tenant_id=$1 AND (events @> to_jsonb(ARRAY[$2::text]) OR events @> '["*"]'::jsonb)`, tenantID, eventType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSubscriptions(rows)
}

func (p *Postgres) ListSubscriptions(ctx context.Context, tenantID, cursor string, limit int) ([]model.Subscription, string, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `SELECT id::text, tenant_id, url, events::text, secret FROM subscriptions WHERE tenant_id=$1`
	args := []any{tenantID}
	if cursor != "" {
		args = append(args, cursor)
		q += ` AND id > $2::uuid`
	}
	args = append(args, limit)
	q += fmt.Sprintf(` ORDER BY id LIMIT $%d`, len(args))
	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()
	subs, err := scanSubscriptions(rows)
	if err != nil {
		return nil, "", err
	}
	next := ""
	if len(subs) == limit {
		next = subs[len(subs)-1].ID
	}
	return subs, next, nil
}

func scanSubscriptions(rows *sql.Rows) ([]model.Subscription, error) {
	out := []model.Subscription{}
	for rows.Next() {
		var s model.Subscription
		var events string
		if err := rows.Scan(&s.ID, &s.TenantID, &s.URL, &events, &s.Secret); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(events), &s.Events)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (p *Postgres) DeleteSubscription(ctx context.Context, tenantID, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE tenant_id=$1 AND id=$2::uuid`, tenantID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) EnqueueWebhook(ctx context.Context, tenantID, subscriptionID, eventType, url, secret string, payload []byte) (string, error) {
	id := uuid.NewString()
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO webhook_deliveries (id, tenant_id, subscription_id, event_type, url, secret, payload, status, attempts, next_attempt_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,'pending',0,now())`,
		id, tenantID, nullIfEmpty(subscriptionID), eventType, url, secret, payload)
	return id, err
}

func (p *Postgres) FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := p.db.QueryContext(ctx,
		`SELECT id::text, tenant_id, COALESCE(subscription_id::text,''), event_type, url, secret, payload, status, attempts
		 FROM webhook_deliveries WHERE status='pending' AND next_attempt_at <= now()
		 ORDER BY next_attempt_at LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []WebhookDelivery{}
	for rows.Next() {
		var d WebhookDelivery
		if err := rows.Scan(&d.ID, &d.TenantID, &d.SubscriptionID, &d.EventType, &d.URL, &d.Secret, &d.Payload, &d.Status, &d.Attempts); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (p *Postgres) MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error {
	if success {
		_, err := p.db.ExecContext(ctx,
			`UPDATE webhook_deliveries SET status='delivered', attempts=attempts+1, delivered_at=now(),
			 last_error=$2, response_code=$3, latency_ms=$4 WHERE id=$1::uuid`, id, lastError, responseCode, latencyMs)
		return err
	}
	_, err := p.db.ExecContext(ctx,
		`UPDATE webhook_deliveries SET attempts=attempts+1, next_attempt_at=$2,
		 last_error=$3, response_code=$4, latency_ms=$5 WHERE id=$1::uuid`, id, nextAttemptAt, lastError, responseCode, latencyMs)
	return err
}

func (p *Postgres) FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error {
	_, err := p.db.ExecContext(ctx,
		`UPDATE webhook_deliveries SET status='failed', attempts=attempts+1,
		 last_error=$2, response_code=$3, latency_ms=$4 WHERE id=$1::uuid`, id, lastError, responseCode, latencyMs)
	return err
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func toJSON(v any) []byte {
	if v == nil {
		return []byte("[]")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return []byte("[]")
	}
	return b
}
