// Package database はデータベース接続とマイグレーション管理を提供する。
package database

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationStatus はスキーマの適用状況。
// Versionが0のときは未適用を表す。
type MigrationStatus struct {
	Version uint
	Dirty   bool
}

// migrateLogger はgolang-migrateの進捗をslogに流す。
type migrateLogger struct{}

func (migrateLogger) Printf(format string, v ...any) {
	slog.Info("migrate", slog.String("detail", strings.TrimSpace(fmt.Sprintf(format, v...))))
}

func (migrateLogger) Verbose() bool { return false }

// NewMigrator は埋め込みSQLを読み込むmigrateインスタンスを生成する。
func NewMigrator(databaseURL string) (*migrate.Migrate, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	m.Log = migrateLogger{}

	return m, nil
}

// RunMigrations は未適用のマイグレーションをすべて適用する。最新なら何もしない。
func RunMigrations(databaseURL string) error {
	_, err := withMigrator(databaseURL, func(m *migrate.Migrate) error { return m.Up() })
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// RollbackMigration は直近のマイグレーションを1つだけ戻し、戻した後の状況を返す。
func RollbackMigration(databaseURL string) (MigrationStatus, error) {
	st, err := withMigrator(databaseURL, func(m *migrate.Migrate) error { return m.Steps(-1) })
	if err != nil {
		return st, fmt.Errorf("failed to roll back migration: %w", err)
	}
	return st, nil
}

// CurrentMigration は現在のスキーマバージョンを返す。
func CurrentMigration(databaseURL string) (MigrationStatus, error) {
	return withMigrator(databaseURL, func(*migrate.Migrate) error { return nil })
}

// withMigrator はopを実行した後のバージョンを読み取る。
// ErrNoChangeと未適用（ErrNilVersion）はエラーとして扱わない。
func withMigrator(databaseURL string, op func(*migrate.Migrate) error) (MigrationStatus, error) {
	m, err := NewMigrator(databaseURL)
	if err != nil {
		return MigrationStatus{}, err
	}
	defer m.Close()

	if err := op(m); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return MigrationStatus{}, err
	}

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return MigrationStatus{}, nil
	}
	if err != nil {
		return MigrationStatus{}, fmt.Errorf("failed to read schema version: %w", err)
	}
	return MigrationStatus{Version: version, Dirty: dirty}, nil
}
