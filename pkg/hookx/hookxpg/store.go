package hookxpg

import (
	"context"
	"fmt"
	"time"

	"github.com/Abraxas-365/mandrillx/pkg/hookx"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
)

const defaultTable = "mandrill_webhook_events"

// Record is one persisted webhook event.
type Record struct {
	ID         uuid.UUID  `db:"id"`
	EventType  string     `db:"event_type"`
	MessageID  string     `db:"message_id"`
	Email      string     `db:"email"`
	OccurredAt *time.Time `db:"occurred_at"`
	Payload    []byte     `db:"payload"`
	ReceivedAt time.Time  `db:"received_at"`
}

// Store persists webhook events in Postgres.
type Store struct {
	db    *sqlx.DB
	table string
	now   func() time.Time
}

// NewStore creates a store writing to table, or mandrill_webhook_events
// when table is empty.
func NewStore(db *sqlx.DB, table string) *Store {
	if table == "" {
		table = defaultTable
	}
	return &Store{db: db, table: table, now: time.Now}
}

// CreateTable creates the events table and its lookup index.
func (s *Store) CreateTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY,
			event_type TEXT NOT NULL DEFAULT '',
			message_id TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			occurred_at TIMESTAMPTZ,
			payload JSONB NOT NULL,
			received_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, s.table)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return hookxpgErrors.NewWithCause(ErrSchema, err).WithDetail("table", s.table)
	}

	index := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_message_id ON %s (message_id)`, s.table, s.table)
	if _, err := s.db.ExecContext(ctx, index); err != nil {
		return hookxpgErrors.NewWithCause(ErrSchema, err).WithDetail("table", s.table)
	}
	return nil
}

// Save inserts ev.
func (s *Store) Save(ctx context.Context, ev hookx.Event) error {
	rec := newRecord(ev, s.now())

	query := fmt.Sprintf(`
		INSERT INTO %s (id, event_type, message_id, email, occurred_at, payload, received_at)
		VALUES (:id, :event_type, :message_id, :email, :occurred_at, :payload, :received_at)`, s.table)
	if _, err := s.db.NamedExecContext(ctx, query, rec); err != nil {
		return hookxpgErrors.NewWithCause(ErrSaveFailed, err).
			WithDetail("event_type", rec.EventType).
			WithDetail("message_id", rec.MessageID)
	}
	return nil
}

// Callback returns Save as a dispatcher callback.
func (s *Store) Callback() hookx.Callback {
	return s.Save
}

// ListByMessage returns the events of one Mandrill message, oldest first.
func (s *Store) ListByMessage(ctx context.Context, messageID string) ([]Record, error) {
	query := fmt.Sprintf(`
		SELECT id, event_type, message_id, email, occurred_at, payload, received_at
		FROM %s WHERE message_id = $1 ORDER BY occurred_at NULLS LAST, received_at`, s.table)

	var records []Record
	if err := s.db.SelectContext(ctx, &records, query, messageID); err != nil {
		return nil, hookxpgErrors.NewWithCause(ErrQueryFailed, err).WithDetail("message_id", messageID)
	}
	return records, nil
}

func newRecord(ev hookx.Event, receivedAt time.Time) Record {
	rec := Record{
		ID:         uuid.New(),
		EventType:  ev.Type,
		MessageID:  ev.MessageID(),
		Email:      ev.Email(),
		Payload:    []byte(ev.Raw),
		ReceivedAt: receivedAt.UTC(),
	}
	if at := ev.OccurredAt(); !at.IsZero() {
		rec.OccurredAt = &at
	}
	if len(rec.Payload) == 0 {
		rec.Payload = []byte("{}")
	}
	return rec
}
