package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/amirphl/signal-bot/internal/signal"
)

// Transaction context key
type txKey struct{}

// WithTransaction adds a transaction to the context.
func WithTransaction(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// GetTransaction retrieves a transaction from context, or returns nil
// if not present.
func GetTransaction(ctx context.Context) *sql.Tx {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS signals (
	id TEXT PRIMARY KEY,
	symbol TEXT NOT NULL,
	kind TEXT NOT NULL,
	confidence DOUBLE PRECISION NOT NULL,
	price DOUBLE PRECISION NOT NULL,
	technical TEXT NOT NULL,
	ml TEXT,
	indicators TEXT,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_signals_symbol_created ON signals (symbol, created_at);
`

// Store is a SQL-backed journal. It speaks both SQLite (the default,
// zero-setup path) and Postgres; queries are written with ? markers
// and rebound for the Postgres wire format.
type Store struct {
	db       *sql.DB
	postgres bool
	logger   zerolog.Logger
}

// OpenSQLite opens (and creates if needed) a SQLite journal at path.
func OpenSQLite(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite journal: %w", err)
	}
	// modernc.org/sqlite serializes writes per connection; a single
	// connection avoids SQLITE_BUSY under concurrent logging.
	db.SetMaxOpenConns(1)
	return newStore(db, false)
}

// OpenPostgres opens a Postgres journal from a DSN.
func OpenPostgres(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres journal: %w", err)
	}
	return newStore(db, true)
}

func newStore(db *sql.DB, postgres bool) (*Store, error) {
	s := &Store{
		db:       db,
		postgres: postgres,
		logger:   log.With().Str("component", "journal").Logger(),
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating journal schema: %w", err)
	}
	return s, nil
}

// LogSignal inserts one fused signal.
func (s *Store) LogSignal(ctx context.Context, c signal.Combined) error {
	technical, err := json.Marshal(c.Technical)
	if err != nil {
		return fmt.Errorf("encoding technical signal: %w", err)
	}

	var ml any
	if c.ML != nil {
		encoded, err := json.Marshal(c.ML)
		if err != nil {
			return fmt.Errorf("encoding prediction: %w", err)
		}
		ml = string(encoded)
	}

	var indicators any
	if len(c.Indicators) > 0 {
		encoded, err := json.Marshal(c.Indicators)
		if err != nil {
			return fmt.Errorf("encoding indicators: %w", err)
		}
		indicators = string(encoded)
	}

	return s.executeWithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, s.rebind(`
		INSERT INTO signals (id, symbol, kind, confidence, price, technical, ml, indicators, created_at)
		VALUES (?,?,?,?,?,?,?,?,?)`),
			c.ID, c.Symbol, string(c.Kind), c.Confidence, c.Price,
			string(technical), ml, indicators, c.CreatedAt.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return fmt.Errorf("failed to log signal %s for %s: %w", c.ID, c.Symbol, err)
		}
		return nil
	})
}

// Signals returns the most recent signals for a symbol, newest first.
func (s *Store) Signals(ctx context.Context, symbol string, limit int) ([]signal.Combined, error) {
	rows, err := s.queryWithTransaction(ctx, s.rebind(`
	SELECT id, symbol, kind, confidence, price, technical, ml, indicators, created_at
	FROM signals WHERE symbol = ? ORDER BY created_at DESC LIMIT ?`), symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query signals for %s: %w", symbol, err)
	}
	defer rows.Close()

	var result []signal.Combined
	for rows.Next() {
		var (
			c          signal.Combined
			kind       string
			technical  string
			ml         sql.NullString
			indicators sql.NullString
			createdAt  string
		)
		if err := rows.Scan(&c.ID, &c.Symbol, &kind, &c.Confidence, &c.Price,
			&technical, &ml, &indicators, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan signal row: %w", err)
		}
		c.Kind = signal.Kind(kind)

		if err := json.Unmarshal([]byte(technical), &c.Technical); err != nil {
			return nil, fmt.Errorf("decoding technical signal: %w", err)
		}
		if ml.Valid {
			c.ML = &signal.Prediction{}
			if err := json.Unmarshal([]byte(ml.String), c.ML); err != nil {
				return nil, fmt.Errorf("decoding prediction: %w", err)
			}
		}
		if indicators.Valid {
			if err := json.Unmarshal([]byte(indicators.String), &c.Indicators); err != nil {
				return nil, fmt.Errorf("decoding indicators: %w", err)
			}
		}
		c.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing signal timestamp %q: %w", createdAt, err)
		}

		result = append(result, c)
	}
	return result, rows.Err()
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// executeWithTransaction runs fn inside the transaction from context
// if one exists, otherwise in a fresh one.
func (s *Store) executeWithTransaction(ctx context.Context, fn func(*sql.Tx) error) error {
	if tx := GetTransaction(ctx); tx != nil {
		return fn(tx)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if fnErr := fn(tx); fnErr != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction rollback failed: %w (original error: %v)", rbErr, fnErr)
		}
		return fnErr
	}
	if commitErr := tx.Commit(); commitErr != nil {
		return fmt.Errorf("transaction commit failed: %w", commitErr)
	}
	return nil
}

func (s *Store) queryWithTransaction(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if tx := GetTransaction(ctx); tx != nil {
		return tx.QueryContext(ctx, query, args...)
	}
	return s.db.QueryContext(ctx, query, args...)
}

// rebind converts ? markers to the $N form Postgres expects.
func (s *Store) rebind(query string) string {
	if !s.postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
