package output

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver

	"github.com/manifest-network/feescope/internal/models"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresBlockOutput stores block records in a Postgres table, upserting by
// block number so re-extraction overwrites earlier error rows.
type PostgresBlockOutput struct {
	db *sql.DB
}

// NewPostgresBlockOutput connects to the database and applies the embedded
// schema migrations.
func NewPostgresBlockOutput(dsn string) (*PostgresBlockOutput, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return &PostgresBlockOutput{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}
	driver, err := migratepgx.WithInstance(db, &migratepgx.Config{})
	if err != nil {
		return fmt.Errorf("preparing migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "pgx", driver)
	if err != nil {
		return fmt.Errorf("initializing migrations: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

const upsertBlock = `
INSERT INTO blocks (block_number, gas_used, gas_limit, gas_utilization, block_timestamp, block_hash, fetch_error)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (block_number) DO UPDATE SET
    gas_used = EXCLUDED.gas_used,
    gas_limit = EXCLUDED.gas_limit,
    gas_utilization = EXCLUDED.gas_utilization,
    block_timestamp = EXCLUDED.block_timestamp,
    block_hash = EXCLUDED.block_hash,
    fetch_error = EXCLUDED.fetch_error`

func (o *PostgresBlockOutput) WriteBlock(ctx context.Context, rec models.BlockRecord) error {
	_, err := o.db.ExecContext(ctx, upsertBlock,
		rec.Number, rec.GasUsed, rec.GasLimit, rec.GasUtilization(), rec.Timestamp, rec.Hash, false)
	if err != nil {
		return fmt.Errorf("upserting block %d: %w", rec.Number, err)
	}
	return nil
}

func (o *PostgresBlockOutput) WriteErrorRow(ctx context.Context, blockNumber uint64) error {
	_, err := o.db.ExecContext(ctx, upsertBlock,
		blockNumber, 0, 0, 0.0, 0, "", true)
	if err != nil {
		return fmt.Errorf("upserting error row for block %d: %w", blockNumber, err)
	}
	return nil
}

func (o *PostgresBlockOutput) LatestBlockNumber(ctx context.Context) (uint64, bool, error) {
	var number sql.NullInt64
	err := o.db.QueryRowContext(ctx, `SELECT MAX(block_number) FROM blocks`).Scan(&number)
	if err != nil {
		return 0, false, fmt.Errorf("querying latest block: %w", err)
	}
	if !number.Valid {
		return 0, false, nil
	}
	return uint64(number.Int64), true, nil
}

const missingBlocksQuery = `
SELECT s.n
FROM generate_series((SELECT MIN(block_number) FROM blocks), (SELECT MAX(block_number) FROM blocks)) AS s(n)
LEFT JOIN blocks b ON b.block_number = s.n
WHERE b.block_number IS NULL
ORDER BY s.n`

func (o *PostgresBlockOutput) MissingBlockNumbers(ctx context.Context) ([]uint64, error) {
	rows, err := o.db.QueryContext(ctx, missingBlocksQuery)
	if err != nil {
		return nil, fmt.Errorf("querying missing blocks: %w", err)
	}
	defer rows.Close()

	var missing []uint64
	for rows.Next() {
		var n int64
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scanning missing block: %w", err)
		}
		missing = append(missing, uint64(n))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating missing blocks: %w", err)
	}
	return missing, nil
}

func (o *PostgresBlockOutput) Close() error {
	return o.db.Close()
}
