package billing

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/karolswdev/promptforge/internal/sqlitestore"
)

// DefaultLedgerTTL is how long the memory ledger remembers an event. Stripe
// retries a failed delivery for up to three days.
const DefaultLedgerTTL = 72 * time.Hour

// Ledger records which webhook events were processed. Claim is atomic: of
// several concurrent claims for one id exactly one returns true.
type Ledger interface {
	Claim(ctx context.Context, eventID string) (bool, error)
	Release(ctx context.Context, eventID string) error
	Seen(ctx context.Context, eventID string) (bool, error)
}

// MemoryLedger keeps event ids in an expiring in-process cache.
type MemoryLedger struct {
	c *cache.Cache
}

// NewMemoryLedger returns a ledger forgetting ids after ttl.
func NewMemoryLedger(ttl time.Duration) *MemoryLedger {
	if ttl <= 0 {
		ttl = DefaultLedgerTTL
	}
	return &MemoryLedger{c: cache.New(ttl, ttl/4)}
}

func (l *MemoryLedger) Seen(_ context.Context, eventID string) (bool, error) {
	_, ok := l.c.Get(eventID)
	return ok, nil
}

// Claim records eventID unless it is already present.
func (l *MemoryLedger) Claim(_ context.Context, eventID string) (bool, error) {
	return l.c.Add(eventID, struct{}{}, cache.DefaultExpiration) == nil, nil
}

// Release forgets eventID so a later delivery can claim it again.
func (l *MemoryLedger) Release(_ context.Context, eventID string) error {
	l.c.Delete(eventID)
	return nil
}

const ledgerSchema = `
CREATE TABLE IF NOT EXISTS webhook_events (
    event_id     TEXT PRIMARY KEY,
    processed_at INTEGER NOT NULL
);`

// SQLiteLedger keeps event ids in the webhook_events table and survives restarts.
type SQLiteLedger struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLiteLedger opens the database at path and prepares the table.
func OpenSQLiteLedger(path string) (*SQLiteLedger, error) {
	db, err := sqlitestore.OpenDB(path, ledgerSchema)
	if err != nil {
		return nil, err
	}
	return &SQLiteLedger{db: db, now: time.Now}, nil
}

// Close closes the database.
func (l *SQLiteLedger) Close() error { return l.db.Close() }

func (l *SQLiteLedger) Seen(ctx context.Context, eventID string) (bool, error) {
	var n int
	err := l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM webhook_events WHERE event_id = ?`, eventID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrLedger, err)
	}
	return n > 0, nil
}

// Claim inserts eventID and reports whether this call added the row.
func (l *SQLiteLedger) Claim(ctx context.Context, eventID string) (bool, error) {
	res, err := l.db.ExecContext(ctx, `INSERT OR IGNORE INTO webhook_events (event_id, processed_at) VALUES (?, ?)`,
		eventID, l.now().UnixMilli())
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrLedger, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrLedger, err)
	}
	return n == 1, nil
}

func (l *SQLiteLedger) Release(ctx context.Context, eventID string) error {
	if _, err := l.db.ExecContext(ctx, `DELETE FROM webhook_events WHERE event_id = ?`, eventID); err != nil {
		return fmt.Errorf("%w: %w", ErrLedger, err)
	}
	return nil
}
