// pkg/audit/postgres.go
package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/David-Botos/pathprep/pkg/config"
	"github.com/David-Botos/pathprep/pkg/converter"
	"github.com/David-Botos/pathprep/pkg/model"
)

// TableName is the audit table
const TableName = "cleaning_operations"

const defaultBatchSize = 500

var columnDefs = []string{
	"id BIGSERIAL PRIMARY KEY",
	"run_id TEXT NOT NULL",
	"dataset TEXT NOT NULL",
	"column_name TEXT NOT NULL",
	"original_value TEXT",
	"new_value TEXT",
	"row_identifier TEXT",
	"cleaning_operation TEXT NOT NULL",
	"cleaning_reason TEXT NOT NULL",
	"cleaned_at TIMESTAMPTZ NOT NULL",
}

// operationRow is the database shape of a cleaning operation
type operationRow struct {
	RunID             string    `db:"run_id"`
	Dataset           string    `db:"dataset"`
	ColumnName        string    `db:"column_name"`
	OriginalValue     *string   `db:"original_value"`
	NewValue          string    `db:"new_value"`
	RowIdentifier     string    `db:"row_identifier"`
	CleaningOperation string    `db:"cleaning_operation"`
	CleaningReason    string    `db:"cleaning_reason"`
	CleanedAt         time.Time `db:"cleaned_at"`
}

func toRow(op model.CleaningOperation) operationRow {
	return operationRow{
		RunID:             op.RunID,
		Dataset:           op.Dataset,
		ColumnName:        op.ColumnName,
		OriginalValue:     toNullableString(op.OriginalValue),
		NewValue:          op.NewValue,
		RowIdentifier:     op.RowIdentifier,
		CleaningOperation: op.CleaningOperation,
		CleaningReason:    op.CleaningReason,
		CleanedAt:         op.CleanedAt.UTC(),
	}
}

// toNullableString safely converts an interface to a nullable string
func toNullableString(v interface{}) *string {
	if v == nil {
		return nil
	}
	if g, ok := v.(model.Geometry); ok {
		s := fmt.Sprintf("<wkb %d bytes>", len(g.WKB))
		return &s
	}
	s := converter.ToString(v)
	return &s
}

// PostgresStore records operations in a PostgreSQL table
type PostgresStore struct {
	db        *sqlx.DB
	logger    *zap.Logger
	cfg       *config.PostgresConfig
	batchSize int
}

// NewPostgresStore connects to the audit database and ensures the audit table exists
func NewPostgresStore(ctx context.Context, cfg *config.PostgresConfig, logger *zap.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("audit-store")

	// Log connection attempt
	logger.Info("Connecting to audit database",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database),
		zap.String("user", cfg.User))

	db, err := sqlx.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize audit database connection")
	}

	// Configure connection pool
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

	// Verify connection
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to connect to audit database")
	}

	s := &PostgresStore{
		db:        db,
		logger:    logger,
		cfg:       cfg,
		batchSize: defaultBatchSize,
	}

	if err := s.ensureTable(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) qualifiedTable() string {
	schema := s.cfg.Schema
	if schema == "" {
		schema = "public"
	}
	return fmt.Sprintf("%s.%s", schema, TableName)
}

func createTableSQL(qualified string) string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)",
		qualified, strings.Join(columnDefs, ",\n\t"))
}

func insertSQL(qualified string) string {
	return fmt.Sprintf(`INSERT INTO %s
		(run_id, dataset, column_name, original_value, new_value,
		 row_identifier, cleaning_operation, cleaning_reason, cleaned_at)
		VALUES (:run_id, :dataset, :column_name, :original_value, :new_value,
		 :row_identifier, :cleaning_operation, :cleaning_reason, :cleaned_at)`, qualified)
}

// ensureTable creates the schema and audit table if they don't exist
func (s *PostgresStore) ensureTable(ctx context.Context) error {
	execCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	if s.cfg.Schema != "" {
		if _, err := s.db.ExecContext(execCtx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", s.cfg.Schema)); err != nil {
			return errors.Wrapf(err, "failed to create/verify schema %s", s.cfg.Schema)
		}
	}
	if _, err := s.db.ExecContext(execCtx, createTableSQL(s.qualifiedTable())); err != nil {
		return errors.Wrapf(err, "failed to create table %s", s.qualifiedTable())
	}
	s.logger.Debug("Audit table ready", zap.String("table", s.qualifiedTable()))
	return nil
}

func (s *PostgresStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.StatementTimeout > 0 {
		return context.WithTimeout(ctx, s.cfg.StatementTimeout)
	}
	return context.WithCancel(ctx)
}

// Record batch inserts operations in one transaction
func (s *PostgresStore) Record(ctx context.Context, ops []model.CleaningOperation) (err error) {
	if len(ops) == 0 {
		return nil
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	// Begin transaction
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("Failed to rollback transaction",
					zap.Error(rbErr),
					zap.NamedError("cause", err))
			}
		}
	}()

	query := insertSQL(s.qualifiedTable())
	for i := 0; i < len(ops); i += s.batchSize {
		end := i + s.batchSize
		if end > len(ops) {
			end = len(ops)
		}

		rows := make([]operationRow, 0, end-i)
		for _, op := range ops[i:end] {
			rows = append(rows, toRow(op))
		}

		if _, err = tx.NamedExecContext(ctx, query, rows); err != nil {
			return errors.Wrap(err, "failed to insert cleaning operations")
		}
	}

	// Commit transaction
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}

	s.logger.Info("Recorded cleaning operations", zap.Int("count", len(ops)))
	return nil
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	stats := s.db.Stats()
	s.logger.Debug("Closing audit database connection",
		zap.Int("open_connections", stats.OpenConnections),
		zap.Int("in_use", stats.InUse),
		zap.Int("idle", stats.Idle))
	return s.db.Close()
}
