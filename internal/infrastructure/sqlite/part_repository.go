// Package sqlite implementa el almacén de piezas sobre SQLite (driver puro Go, sin cgo).
// Misma forma de tabla que PostgreSQL: documento JSON más columna de versión para el CAS.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // driver "sqlite"

	"github.com/Tweltz1/Project-Tracking/internal/domain"
	"github.com/Tweltz1/Project-Tracking/internal/domain/entity"
	"github.com/Tweltz1/Project-Tracking/internal/domain/repository"
	"github.com/Tweltz1/Project-Tracking/internal/infrastructure/partdoc"
)

var _ repository.PartRepository = (*PartRepo)(nil)

const schema = `CREATE TABLE IF NOT EXISTS parts (
	id         TEXT PRIMARY KEY,
	version    INTEGER NOT NULL,
	document   TEXT    NOT NULL,
	created_at TEXT    NOT NULL,
	updated_at TEXT    NOT NULL
)`

// PartRepo almacén de piezas sobre un archivo SQLite.
type PartRepo struct {
	db *sql.DB
}

// Open abre (o crea) la base en path y asegura la tabla.
func Open(ctx context.Context, path string) (*PartRepo, error) {
	if path == "" {
		path = "project-tracking.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite serializa escrituras; una sola conexión evita SQLITE_BUSY entre goroutines.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create parts table: %w", err)
	}
	return &PartRepo{db: db}, nil
}

// Close cierra la base.
func (r *PartRepo) Close() error { return r.db.Close() }

// List devuelve todas las piezas ordenadas por ID.
func (r *PartRepo) List(ctx context.Context) ([]*entity.Part, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT version, document FROM parts ORDER BY id`)
	if err != nil {
		return nil, unavailable("list parts", err)
	}
	defer func() { _ = rows.Close() }()
	var list []*entity.Part
	for rows.Next() {
		var (
			version int64
			doc     string
		)
		if err := rows.Scan(&version, &doc); err != nil {
			return nil, unavailable("scan part", err)
		}
		p, err := partdoc.Unmarshal([]byte(doc))
		if err != nil {
			return nil, err
		}
		p.Version = version
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list parts", err)
	}
	return list, nil
}

// GetByID obtiene una pieza por ID.
func (r *PartRepo) GetByID(ctx context.Context, id string) (*entity.Part, error) {
	var (
		version int64
		doc     string
	)
	err := r.db.QueryRowContext(ctx, `SELECT version, document FROM parts WHERE id = ?`, id).Scan(&version, &doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, unavailable("get part", err)
	}
	p, err := partdoc.Unmarshal([]byte(doc))
	if err != nil {
		return nil, err
	}
	p.Version = version
	return p, nil
}

// Create inserta una pieza nueva con versión 1.
func (r *PartRepo) Create(ctx context.Context, part *entity.Part) error {
	stored := part.Clone()
	stored.Version = 1
	doc, err := partdoc.Marshal(&stored)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO parts (id, version, document, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		stored.ID, stored.Version, string(doc), stored.CreatedAt.UTC().Format(timeLayout), stored.UpdatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return domain.ErrDuplicate
		}
		return unavailable("insert part", err)
	}
	part.Version = 1
	return nil
}

// Replace actualiza el documento solo si la versión almacenada es expectedVersion.
func (r *PartRepo) Replace(ctx context.Context, part *entity.Part, expectedVersion int64) error {
	stored := part.Clone()
	stored.Version = expectedVersion + 1
	doc, err := partdoc.Marshal(&stored)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE parts SET version = ?, document = ?, updated_at = ? WHERE id = ? AND version = ?`,
		stored.Version, string(doc), stored.UpdatedAt.UTC().Format(timeLayout), stored.ID, expectedVersion,
	)
	if err != nil {
		return unavailable("update part", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return unavailable("update part", err)
	}
	if n == 0 {
		var exists int
		if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM parts WHERE id = ?`, part.ID).Scan(&exists); err != nil {
			return unavailable("check part", err)
		}
		if exists == 0 {
			return domain.ErrNotFound
		}
		return domain.ErrConflict
	}
	part.Version = stored.Version
	return nil
}

// Delete elimina una pieza por ID.
func (r *PartRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM parts WHERE id = ?`, id)
	if err != nil {
		return unavailable("delete part", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return unavailable("delete part", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Ping verifica que la base responda.
func (r *PartRepo) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

const timeLayout = "2006-01-02T15:04:05.999999999Z07:00"

// isConstraintViolation detecta la violación de PRIMARY KEY (SQLITE_CONSTRAINT).
func isConstraintViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "SQLITE_CONSTRAINT")
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
}
