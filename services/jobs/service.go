package jobs

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"posterforge/models"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

var (
	ErrDatabasePathRequired = errors.New("database path not provided")
	ErrJobNameRequired      = errors.New("job name is required")
	ErrInvalidStatus        = errors.New("invalid job status")
)

// Service records the status events reported by badge job runs and serves
// the dashboard's job history view.
type Service struct {
	db *sql.DB
}

// NewService opens (creating if needed) the job history database and applies
// pending migrations.
func NewService(dbPath string) (*Service, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, ErrDatabasePathRequired
	}

	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open job history db: %w", err)
	}

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate job history db: %w", err)
	}

	return &Service{db: db}, nil
}

// Close releases the database handle.
func (s *Service) Close() error {
	return s.db.Close()
}

// Record stores one status event, filling in the id and timestamp when the
// runner did not supply them.
func (s *Service) Record(ctx context.Context, ev models.JobEvent) (models.JobEvent, error) {
	ev.JobName = strings.TrimSpace(ev.JobName)
	if ev.JobName == "" {
		return models.JobEvent{}, ErrJobNameRequired
	}
	if !ev.Status.Valid() {
		return models.JobEvent{}, fmt.Errorf("%w: %q", ErrInvalidStatus, ev.Status)
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.ReportedAt.IsZero() {
		ev.ReportedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO job_events (id, job_name, status, detail, reported_at) VALUES (?, ?, ?, ?, ?)`,
		ev.ID, ev.JobName, string(ev.Status), ev.Detail, ev.ReportedAt,
	)
	if err != nil {
		return models.JobEvent{}, fmt.Errorf("record job event: %w", err)
	}
	return ev, nil
}

// List returns the most recent events, newest first.
func (s *Service) List(ctx context.Context, limit int) ([]models.JobEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, job_name, status, detail, reported_at FROM job_events ORDER BY reported_at DESC, id LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list job events: %w", err)
	}
	defer rows.Close()

	events := make([]models.JobEvent, 0, limit)
	for rows.Next() {
		var ev models.JobEvent
		var status string
		if err := rows.Scan(&ev.ID, &ev.JobName, &status, &ev.Detail, &ev.ReportedAt); err != nil {
			return nil, fmt.Errorf("scan job event: %w", err)
		}
		ev.Status = models.JobStatus(status)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list job events: %w", err)
	}
	return events, nil
}

// Prune deletes events older than the retention window, returning how many
// were removed.
func (s *Service) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)
	res, err := s.db.ExecContext(ctx, `DELETE FROM job_events WHERE reported_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune job events: %w", err)
	}
	return res.RowsAffected()
}
