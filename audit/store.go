package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/lib/pq"

	"github.com/sealedbid/auctionhouse/auction"
)

// Record is one persisted audit entry: the event kind, the auction it
// belongs to, when it was appended, and the event-specific payload.
type Record struct {
	Seq       int64             `json:"seq"`
	Kind      string            `json:"kind"`
	AuctionID auction.AuctionID `json:"auction_id"`
	At        time.Time         `json:"at"`
	Payload   json.RawMessage   `json:"payload"`
}

// Store is an append-only audit log. Entries are never updated or deleted.
type Store interface {
	// Append persists one event.
	Append(ev auction.Event) error

	// ByAuction returns all records for an auction in append order.
	ByAuction(id auction.AuctionID) ([]Record, error)

	// Close releases underlying resources.
	Close() error
}

// PostgresStore implements Store with PostgreSQL persistence.
type PostgresStore struct {
	db    *sql.DB
	clock auction.Clock
}

// PostgresConfig contains PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// ConnectionString returns the PostgreSQL connection string.
func (c *PostgresConfig) ConnectionString() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, sslMode)
}

// NewPostgresStore creates a new PostgreSQL-backed audit store.
func NewPostgresStore(config *PostgresConfig) (*PostgresStore, error) {
	db, err := sql.Open("postgres", config.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	store := &PostgresStore{db: db, clock: time.Now}
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS audit_events (
		seq BIGSERIAL PRIMARY KEY,
		kind VARCHAR(64) NOT NULL,
		auction_id BIGINT NOT NULL,
		at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		payload JSONB NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_audit_auction ON audit_events(auction_id, seq);
	`

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Append persists one event.
func (s *PostgresStore) Append(ev auction.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO audit_events (kind, auction_id, payload) VALUES ($1, $2, $3)`,
		ev.Kind(), uint64(ev.AuctionID()), payload,
	)
	return err
}

// ByAuction returns all records for an auction in append order.
func (s *PostgresStore) ByAuction(id auction.AuctionID) ([]Record, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, kind, auction_id, at, payload FROM audit_events WHERE auction_id = $1 ORDER BY seq`,
		uint64(id),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var auctionID uint64
		if err := rows.Scan(&rec.Seq, &rec.Kind, &auctionID, &rec.At, &rec.Payload); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		rec.AuctionID = auction.AuctionID(auctionID)
		records = append(records, rec)
	}

	return records, rows.Err()
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// InMemoryStore implements Store without a database, for tests and the
// single-process demo deployment.
type InMemoryStore struct {
	mu      sync.Mutex
	clock   auction.Clock
	nextSeq int64
	records []Record
}

// NewInMemoryStore creates an in-memory audit store.
func NewInMemoryStore(clock auction.Clock) *InMemoryStore {
	if clock == nil {
		clock = time.Now
	}
	return &InMemoryStore{clock: clock, nextSeq: 1}
}

// Append stores an event in memory.
func (s *InMemoryStore) Append(ev auction.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, Record{
		Seq:       s.nextSeq,
		Kind:      ev.Kind(),
		AuctionID: ev.AuctionID(),
		At:        s.clock(),
		Payload:   payload,
	})
	s.nextSeq++
	return nil
}

// ByAuction returns all stored records for an auction in append order.
func (s *InMemoryStore) ByAuction(id auction.AuctionID) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Record
	for _, rec := range s.records {
		if rec.AuctionID == id {
			out = append(out, rec)
		}
	}
	return out, nil
}

// All returns every stored record. Test helper.
func (s *InMemoryStore) All() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error { return nil }
