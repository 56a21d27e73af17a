package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"gridfx-config-bot/internal/executor"
	"gridfx-config-bot/internal/planner"
	"gridfx-config-bot/internal/tree"
)

// DB wraps the PostgreSQL connection pool
type DB struct {
	Pool *pgxpool.Pool
	log  zerolog.Logger
}

// DBConfig holds database connection settings
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// NewDB creates a new database connection pool
func NewDB(cfg DBConfig, log zerolog.Logger) (*DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	db := &DB{Pool: pool, log: log.With().Str("component", "database").Logger()}
	db.log.Info().Str("database", cfg.Database).Msg("connected to postgres")
	return db, nil
}

// Close closes the database connection pool
func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// RunMigrations creates the recorder tables
func (db *DB) RunMigrations(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS config_snapshots (
			id SERIAL PRIMARY KEY,
			message TEXT NOT NULL,
			author VARCHAR(100) NOT NULL,
			tags TEXT[] DEFAULT '{}',
			leaf_count INTEGER NOT NULL,
			tree JSONB NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_created_at ON config_snapshots(created_at)`,

		`CREATE TABLE IF NOT EXISTS change_ledger (
			id SERIAL PRIMARY KEY,
			op_type VARCHAR(30) NOT NULL,
			target VARCHAR(200) NOT NULL,
			before_value TEXT NOT NULL,
			after_value TEXT NOT NULL,
			description TEXT,
			occurred_at TIMESTAMP NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_target ON change_ledger(target)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_occurred_at ON change_ledger(occurred_at)`,

		`CREATE TABLE IF NOT EXISTS learning_actions (
			id SERIAL PRIMARY KEY,
			username VARCHAR(100) NOT NULL,
			action_type VARCHAR(30) NOT NULL,
			change_count INTEGER NOT NULL,
			changes JSONB NOT NULL,
			action_context JSONB,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_actions_username ON learning_actions(username)`,
	}

	for i, m := range migrations {
		if _, err := db.Pool.Exec(ctx, m); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	db.log.Info().Int("statements", len(migrations)).Msg("migrations complete")
	return nil
}

// PGRecorder persists snapshots, ledger operations and learning actions in
// PostgreSQL. It satisfies the SnapshotRecorder, ChangeLedger and
// LearningRecorder interfaces.
type PGRecorder struct {
	db *DB
}

// NewPGRecorder creates a recorder on an open database
func NewPGRecorder(db *DB) *PGRecorder {
	return &PGRecorder{db: db}
}

// CreateSnapshot stores the full tree as a JSONB document
func (r *PGRecorder) CreateSnapshot(ctx context.Context, t *tree.Tree, message, author string, tags []string) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal snapshot tree: %w", err)
	}
	if tags == nil {
		tags = []string{}
	}
	_, err = r.db.Pool.Exec(ctx,
		`INSERT INTO config_snapshots (message, author, tags, leaf_count, tree)
		 VALUES ($1, $2, $3, $4, $5)`,
		message, author, tags, t.LeafCount(), payload)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// AddOperation stores one leaf change on the ledger
func (r *PGRecorder) AddOperation(ctx context.Context, op executor.LedgerOperation) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO change_ledger (op_type, target, before_value, after_value, description, occurred_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		op.Type, op.Target, op.Before, op.After, op.Description, op.Timestamp)
	if err != nil {
		return fmt.Errorf("insert ledger operation: %w", err)
	}
	return nil
}

// RecordAction stores one user action with its change set for later analysis
func (r *PGRecorder) RecordAction(ctx context.Context, user, actionType string, changes []planner.ChangePreview, actionContext map[string]string) error {
	changesJSON, err := json.Marshal(changes)
	if err != nil {
		return fmt.Errorf("marshal action changes: %w", err)
	}
	contextJSON, err := json.Marshal(actionContext)
	if err != nil {
		return fmt.Errorf("marshal action context: %w", err)
	}
	_, err = r.db.Pool.Exec(ctx,
		`INSERT INTO learning_actions (username, action_type, change_count, changes, action_context)
		 VALUES ($1, $2, $3, $4, $5)`,
		user, actionType, len(changes), changesJSON, contextJSON)
	if err != nil {
		return fmt.Errorf("insert learning action: %w", err)
	}
	return nil
}

// RecentSnapshots lists snapshot metadata, newest first
func (r *PGRecorder) RecentSnapshots(ctx context.Context, limit int) ([]SnapshotMeta, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, message, author, leaf_count, created_at
		 FROM config_snapshots ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var out []SnapshotMeta
	for rows.Next() {
		var m SnapshotMeta
		if err := rows.Scan(&m.ID, &m.Message, &m.Author, &m.LeafCount, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// SnapshotMeta is snapshot metadata without the tree payload
type SnapshotMeta struct {
	ID        int       `json:"id"`
	Message   string    `json:"message"`
	Author    string    `json:"author"`
	LeafCount int       `json:"leaf_count"`
	CreatedAt time.Time `json:"created_at"`
}
