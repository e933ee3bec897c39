// Package alerts persists alert configurations and the delivery/audit log
// against a Postgres-compatible store, using jackc/pgx/v5 the same
// context-first Query/Exec/Scan style backfill_tx_metrics/main.go uses
// against flowindex's database.
package alerts

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/nottherealalanturing/stellar-fee-tracker/pkg/model"
)

// Config is one row of alert_configs (spec §6).
type Config struct {
	ID         int64
	WebhookURL string
	Threshold  model.Severity
	Enabled    bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Event is one row of alert_events: a record of a spike that crossed a
// config's threshold, along with whether delivery succeeded.
type Event struct {
	ID          int64
	ConfigID    int64
	Severity    model.Severity
	PeakFee     uint64
	BaselineFee float64
	SpikeRatio  float64
	WebhookURL  string
	Delivered   bool
	TriggeredAt time.Time
}

// Store wraps a pgxpool connection pool, matching the schema pinned in
// spec §6.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore opens a pool against dsn.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "opening alert store pool")
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// EnabledConfigs returns every enabled alert_configs row, used by
// WebhookEmitter to decide which webhooks to notify for a closed spike.
func (s *Store) EnabledConfigs(ctx context.Context) ([]Config, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, webhook_url, threshold, enabled, created_at, updated_at
		FROM alert_configs
		WHERE enabled = TRUE`)
	if err != nil {
		return nil, errors.Wrap(err, "querying alert_configs")
	}
	defer rows.Close()

	var configs []Config
	for rows.Next() {
		var c Config
		var threshold string
		if err := rows.Scan(&c.ID, &c.WebhookURL, &threshold, &c.Enabled, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "scanning alert_configs row")
		}
		c.Threshold = model.Severity(threshold)
		configs = append(configs, c)
	}
	return configs, rows.Err()
}

// RecordEvent inserts one alert_events row, used for both a successful
// delivery and a failed one (spec §7's EmitterFailure: recorded with
// delivered = false, never fed back into core progress).
func (s *Store) RecordEvent(ctx context.Context, e Event) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO alert_events (
			config_id, severity, peak_fee, baseline_fee, spike_ratio,
			webhook_url, delivered, triggered_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ConfigID, string(e.Severity), int64(e.PeakFee), e.BaselineFee, e.SpikeRatio,
		e.WebhookURL, e.Delivered, e.TriggeredAt)
	if err != nil {
		return errors.Wrap(err, "inserting alert_events row")
	}
	return nil
}

// RecentEvents returns the most recent alert_events rows, newest first,
// using the triggered_at index named in spec §6.
func (s *Store) RecentEvents(ctx context.Context, limit int) ([]Event, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, config_id, severity, peak_fee, baseline_fee, spike_ratio,
		       webhook_url, delivered, triggered_at
		FROM alert_events
		ORDER BY triggered_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "querying alert_events")
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var severity string
		var peakFee int64
		if err := rows.Scan(&e.ID, &e.ConfigID, &severity, &peakFee, &e.BaselineFee,
			&e.SpikeRatio, &e.WebhookURL, &e.Delivered, &e.TriggeredAt); err != nil {
			return nil, errors.Wrap(err, "scanning alert_events row")
		}
		e.Severity = model.Severity(severity)
		e.PeakFee = uint64(peakFee)
		events = append(events, e)
	}
	return events, rows.Err()
}
