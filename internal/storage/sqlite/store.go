package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/galaxy/internal/domain/registry"
	"github.com/GriffinCanCode/galaxy/internal/shared/paths"
	"github.com/GriffinCanCode/galaxy/internal/shared/types"
)

// Store is a registry.Store backed by a SQLite database.
// The layer list and the binding of one commit are written in a single
// transaction.
type Store struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
}

var _ registry.Store = (*Store)(nil)

// Open opens (creating if needed) the database at path and migrates it
func Open(ctx context.Context, path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("sqlite")

	if err := paths.EnsureParent(path); err != nil {
		return nil, err
	}

	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(wal)&_txlock=immediate"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		logger.Error("Failed to open database", zap.String("path", path), zap.Error(err))
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		logger.Error("Failed to ping database", zap.String("path", path), zap.Error(err))
		return nil, err
	}

	version, err := runMigrations(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("Connected to database", zap.String("path", path), zap.Uint("schema", version))
	return &Store{db: db, path: path, logger: logger}, nil
}

// Layers implements registry.Store
func (s *Store) Layers(ctx context.Context, user types.UserID) ([]string, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT layers FROM user_layers WHERE user_id = ?`, user.String(),
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var layers []string
	if err := sonic.UnmarshalString(raw, &layers); err != nil {
		return nil, false, fmt.Errorf("corrupt layer list for %s: %w", user, err)
	}
	return layers, true, nil
}

// Link implements registry.Store
func (s *Store) Link(ctx context.Context, user types.UserID, name string) (string, bool, error) {
	var link string
	err := s.db.QueryRowContext(ctx,
		`SELECT link FROM layer_links WHERE user_id = ? AND layer_name = ?`, user.String(), name,
	).Scan(&link)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return link, true, nil
}

// Commit implements registry.Store
func (s *Store) Commit(ctx context.Context, layers []string, layer types.Layer) error {
	list, err := sonic.MarshalString(layers)
	if err != nil {
		return fmt.Errorf("failed to encode layer list: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO layer_links (user_id, layer_name, link, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id, layer_name) DO NOTHING`,
		layer.User.String(), layer.Name, layer.Link, layer.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return err
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if inserted == 0 {
		return &registry.ConsistencyError{User: layer.User, Name: layer.Name, Reason: "binding already present"}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO user_layers (user_id, layers, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET layers = excluded.layers, updated_at = excluded.updated_at`,
		layer.User.String(), list, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("Commit failed", zap.String("user", layer.User.String()), zap.Error(err))
		return err
	}
	return nil
}

// Path returns the database file location
func (s *Store) Path() string { return s.path }

// Close implements registry.Store
func (s *Store) Close() error {
	return s.db.Close()
}
