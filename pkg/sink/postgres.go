// pkg/sink/postgres.go
package sink

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/smart-sales/dataprep/pkg/config"
	"github.com/smart-sales/dataprep/pkg/model"
)

// PostgresSink writes cleaned tables into a PostgreSQL warehouse table
type PostgresSink struct {
	db     *sqlx.DB
	table  string
	logger *zap.Logger
	cfg    *config.PostgresConfig
}

// NewPostgresSink creates and validates a new PostgreSQL sink
func NewPostgresSink(ctx context.Context, cfg *config.PostgresConfig, table string, logger *zap.Logger) (*PostgresSink, error) {
	log := logger.Named("postgres-sink")

	log.Info("Connecting to PostgreSQL",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database),
		zap.String("table", table))

	db, err := sqlx.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL connection: %w", err)
	}

	// Configure connection pool
	applyConnectionSettings(db, cfg)

	// Set statement timeout if configured
	if cfg.StatementTimeout > 0 {
		_, err = db.ExecContext(
			ctx,
			fmt.Sprintf("SET statement_timeout = %d", cfg.StatementTimeout.Milliseconds()),
		)
		if err != nil {
			log.Warn("Failed to set statement timeout", zap.Error(err))
		}
	}

	// Verify connection
	if err := pingWithTimeout(ctx, db, 5*time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	return &PostgresSink{
		db:     db,
		table:  table,
		logger: log,
		cfg:    cfg,
	}, nil
}

// Destination describes where the table goes
func (s *PostgresSink) Destination() string {
	return fmt.Sprintf("postgres://%s/%s", s.cfg.Database, s.table)
}

// Write replaces the warehouse table's contents with the cleaned table.
// The target table is created when missing, typed from the cleaned
// values, and loaded in a single transaction.
func (s *PostgresSink) Write(ctx context.Context, dataset string, table *model.Table) error {
	if table.ColumnCount() == 0 {
		return fmt.Errorf("table for dataset %s has no columns", dataset)
	}

	if err := s.ensureTable(ctx, table); err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("Failed to rollback transaction",
					zap.Error(rbErr),
					zap.Error(err))
			}
		}
	}()

	// Replace semantics: each run rewrites the warehouse table
	if _, err = tx.ExecContext(ctx, "TRUNCATE TABLE "+pq.QuoteIdentifier(s.table)); err != nil {
		return fmt.Errorf("failed to truncate target table: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, s.insertStatement(table))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	args := make([]interface{}, len(table.Columns))
	for _, row := range table.Rows {
		for i, col := range table.Columns {
			args[i] = row[col]
		}
		if _, err = stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert row: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("Loaded cleaned table into warehouse",
		zap.String("dataset", dataset),
		zap.String("table", s.table),
		zap.Int("rows", table.RowCount()))

	return nil
}

// Close closes the database connection
func (s *PostgresSink) Close() error {
	return s.db.Close()
}

// ensureTable creates the target table when it does not exist, deriving
// column types from the cleaned values.
func (s *PostgresSink) ensureTable(ctx context.Context, table *model.Table) error {
	defs := make([]string, len(table.Columns))
	for i, col := range table.Columns {
		defs[i] = pq.QuoteIdentifier(col) + " " + columnType(table, col)
	}

	createSQL := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		pq.QuoteIdentifier(s.table), strings.Join(defs, ", "))

	if _, err := s.db.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("failed to create target table: %w", err)
	}
	return nil
}

// columnType derives a PostgreSQL column type from the first non-null
// value in the column. TEXT is the fallback.
func columnType(table *model.Table, col string) string {
	for _, row := range table.Rows {
		switch row[col].(type) {
		case nil:
			continue
		case int64:
			return "BIGINT"
		case float64:
			return "DOUBLE PRECISION"
		case bool:
			return "BOOLEAN"
		case time.Time:
			return "TIMESTAMP WITH TIME ZONE"
		default:
			return "TEXT"
		}
	}
	return "TEXT"
}

// insertStatement builds the parameterized insert for the target table
func (s *PostgresSink) insertStatement(table *model.Table) string {
	cols := make([]string, len(table.Columns))
	params := make([]string, len(table.Columns))
	for i, col := range table.Columns {
		cols[i] = pq.QuoteIdentifier(col)
		params[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		pq.QuoteIdentifier(s.table),
		strings.Join(cols, ", "),
		strings.Join(params, ", "))
}

// applyConnectionSettings configures database connection pool settings
func applyConnectionSettings(db *sqlx.DB, cfg *config.PostgresConfig) {
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
}

// pingWithTimeout attempts to ping the database with a timeout
func pingWithTimeout(ctx context.Context, db *sqlx.DB, timeout time.Duration) error {
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("ping failed after %v: %w", timeout, err)
	}
	return nil
}
