package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"fatture/internal/core"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// blobKey is the single storage key the whole collection lives under.
const blobKey = "invoices"

// SQLiteRepository persists the collection as one JSON document in a
// key/value table, rewritten wholesale on every mutation. SQLite here is a
// durable blob store, not a relational mapping: the document layout is the
// same Invoice JSON shape the API speaks.
type SQLiteRepository struct {
	db *sql.DB
}

var _ Repository = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := migrateSchema(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// migrateSchema brings the blob table up to date before the repository
// touches it. Migrations run over their own connection so the migrate lock
// never sits on the repository's.
func migrateSchema(dbPath string) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer db.Close()

	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("wrap migration connection: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("build migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// readAll loads and decodes the blob. A missing row is an empty collection;
// so is an undecodable one, with a warning. The core never sees a hard read
// failure from a corrupt blob.
func (r *SQLiteRepository) readAll(ctx context.Context) ([]core.Invoice, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM blobs WHERE key = ?`, blobKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read blob: %w", err)
	}

	var invoices []core.Invoice
	if err := json.Unmarshal(raw, &invoices); err != nil {
		slog.WarnContext(ctx, "Stored invoice blob is unreadable, degrading to empty collection",
			"key", blobKey, "error", err)
		return nil, nil
	}
	return invoices, nil
}

// writeAll serializes the whole collection and replaces the blob.
func (r *SQLiteRepository) writeAll(ctx context.Context, invoices []core.Invoice) error {
	raw, err := json.Marshal(invoices)
	if err != nil {
		return fmt.Errorf("marshal invoices: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO blobs (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		blobKey, raw)
	if err != nil {
		return fmt.Errorf("write blob: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListAll(ctx context.Context) ([]core.Invoice, error) {
	return r.readAll(ctx)
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (core.Invoice, error) {
	invoices, err := r.readAll(ctx)
	if err != nil {
		return core.Invoice{}, err
	}
	for _, inv := range invoices {
		if inv.ID == id {
			return inv, nil
		}
	}
	return core.Invoice{}, ErrNotFound
}

func (r *SQLiteRepository) Create(ctx context.Context, inv core.Invoice) (core.Invoice, error) {
	invoices, err := r.readAll(ctx)
	if err != nil {
		return core.Invoice{}, err
	}
	invoices = append(invoices, inv)
	if err := r.writeAll(ctx, invoices); err != nil {
		return core.Invoice{}, err
	}

	slog.InfoContext(ctx, "Invoice saved",
		"id", inv.ID,
		"number", inv.InvoiceNumber,
		"client", inv.ClientName,
		"total", inv.Total)
	return inv, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, inv core.Invoice) (core.Invoice, error) {
	invoices, err := r.readAll(ctx)
	if err != nil {
		return core.Invoice{}, err
	}
	replaced := false
	for i := range invoices {
		if invoices[i].ID == inv.ID {
			invoices[i] = inv
			replaced = true
			break
		}
	}
	if !replaced {
		// Unknown id is a no-op; nothing to rewrite.
		return inv, nil
	}
	if err := r.writeAll(ctx, invoices); err != nil {
		return core.Invoice{}, err
	}
	return inv, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) (string, error) {
	invoices, err := r.readAll(ctx)
	if err != nil {
		return "", err
	}
	kept := invoices[:0]
	removed := false
	for _, inv := range invoices {
		if inv.ID == id {
			removed = true
			continue
		}
		kept = append(kept, inv)
	}
	if !removed {
		return id, nil
	}
	if err := r.writeAll(ctx, kept); err != nil {
		return "", err
	}
	slog.InfoContext(ctx, "Invoice deleted", "id", id)
	return id, nil
}
