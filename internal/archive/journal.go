// Package archive journals accepted market snapshots to Postgres.
// The dashboard never reads the journal back.
package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"github.com/zappabad/marketpulse/internal/market"
)

const schema = `
CREATE TABLE IF NOT EXISTS market_snapshots (
	id SERIAL PRIMARY KEY,
	fetched_at TIMESTAMPTZ NOT NULL,
	source VARCHAR(32) NOT NULL,
	generated_at VARCHAR(64),
	symbol VARCHAR(32) NOT NULL,
	name TEXT NOT NULL,
	category VARCHAR(32),
	price DOUBLE PRECISION NOT NULL,
	change DOUBLE PRECISION NOT NULL,
	change_percent DOUBLE PRECISION NOT NULL,
	volume DOUBLE PRECISION,
	created_at TIMESTAMPTZ DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_snapshots_symbol_fetched ON market_snapshots(symbol, fetched_at);
`

const insertRow = `INSERT INTO market_snapshots
	(fetched_at, source, generated_at, symbol, name, category, price, change, change_percent, volume)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

// ErrNotOpen is returned when writing to a closed or zero Journal.
var ErrNotOpen = errors.New("journal is not open")

// Row is one journaled record.
type Row struct {
	FetchedAt     time.Time
	Source        string
	GeneratedAt   string
	Symbol        string
	Name          string
	Category      string
	Price         float64
	Change        float64
	ChangePercent float64
	Volume        sql.NullFloat64
}

func (r Row) args() []any {
	return []any{r.FetchedAt, r.Source, r.GeneratedAt, r.Symbol, r.Name, r.Category,
		r.Price, r.Change, r.ChangePercent, r.Volume}
}

// Rows flattens a snapshot into journal rows.
func Rows(snap market.Snapshot) []Row {
	rows := make([]Row, 0, len(snap.Records))
	for _, rec := range snap.Records {
		row := Row{
			FetchedAt:     snap.FetchedAt.UTC(),
			Source:        snap.Source,
			GeneratedAt:   snap.GeneratedAt,
			Symbol:        rec.Symbol,
			Name:          rec.Name,
			Category:      string(rec.Category),
			Price:         rec.Price,
			Change:        rec.Change,
			ChangePercent: rec.ChangePercent,
		}
		if v, ok := rec.Volume.Value(); ok {
			row.Volume = sql.NullFloat64{Float64: v, Valid: true}
		}
		rows = append(rows, row)
	}
	return rows
}

// Journal appends snapshots to the market_snapshots table.
type Journal struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open connects to Postgres and creates the schema.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*Journal, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	j := &Journal{db: db, logger: logger}
	if err := j.InitSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}
	return j, nil
}

// InitSchema creates the journal table if needed.
func (j *Journal) InitSchema(ctx context.Context) error {
	_, err := j.db.ExecContext(ctx, schema)
	return err
}

// Record writes every record of snap in one transaction.
func (j *Journal) Record(ctx context.Context, snap market.Snapshot) error {
	if j == nil || j.db == nil {
		return ErrNotOpen
	}
	rows := Rows(snap)
	if len(rows) == 0 {
		return nil
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertRow)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row.args()...); err != nil {
			return fmt.Errorf("failed to insert %s: %w", row.Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	j.logger.Debug("snapshot journaled", "source", snap.Source, "rows", len(rows))
	return nil
}

// Ping checks the connection.
func (j *Journal) Ping(ctx context.Context) error {
	if j == nil || j.db == nil {
		return ErrNotOpen
	}
	return j.db.PingContext(ctx)
}

// Close closes the database.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}
