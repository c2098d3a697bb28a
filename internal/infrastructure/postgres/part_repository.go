package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Tweltz1/Project-Tracking/internal/domain"
	"github.com/Tweltz1/Project-Tracking/internal/domain/entity"
	"github.com/Tweltz1/Project-Tracking/internal/domain/repository"
	"github.com/Tweltz1/Project-Tracking/internal/infrastructure/partdoc"
)

var _ repository.PartRepository = (*PartRepo)(nil)

// Schema tabla de documentos de piezas. La columna version es la fuente de verdad para el CAS.
const Schema = `
CREATE TABLE IF NOT EXISTS parts (
	id         TEXT PRIMARY KEY,
	version    BIGINT      NOT NULL,
	document   JSONB       NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`

// EnsureSchema crea la tabla si no existe.
func EnsureSchema(ctx context.Context, q Querier) error {
	if _, err := q.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("create parts table: %w", err)
	}
	return nil
}

// PartRepo implementación del puerto PartRepository sobre PostgreSQL (usable con pool o tx).
type PartRepo struct {
	q Querier
}

// NewPartRepository construye el adaptador de persistencia para piezas. Pasar pool o tx (Querier).
func NewPartRepository(q Querier) *PartRepo {
	return &PartRepo{q: q}
}

// List devuelve todas las piezas ordenadas por ID.
func (r *PartRepo) List(ctx context.Context) ([]*entity.Part, error) {
	rows, err := r.q.Query(ctx, `SELECT version, document FROM parts ORDER BY id`)
	if err != nil {
		return nil, unavailable("list parts", err)
	}
	defer rows.Close()
	var list []*entity.Part
	for rows.Next() {
		var (
			version int64
			doc     []byte
		)
		if err := rows.Scan(&version, &doc); err != nil {
			return nil, unavailable("scan part", err)
		}
		p, err := partdoc.Unmarshal(doc)
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
		doc     []byte
	)
	err := r.q.QueryRow(ctx, `SELECT version, document FROM parts WHERE id = $1`, id).Scan(&version, &doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, unavailable("get part", err)
	}
	p, err := partdoc.Unmarshal(doc)
	if err != nil {
		return nil, err
	}
	p.Version = version
	return p, nil
}

// Create persiste una pieza nueva con versión 1.
func (r *PartRepo) Create(ctx context.Context, part *entity.Part) error {
	stored := part.Clone()
	stored.Version = 1
	doc, err := partdoc.Marshal(&stored)
	if err != nil {
		return err
	}
	_, err = r.q.Exec(ctx,
		`INSERT INTO parts (id, version, document, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		stored.ID, stored.Version, doc, stored.CreatedAt, stored.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
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
	cmd, err := r.q.Exec(ctx,
		`UPDATE parts SET version = $3, document = $4, updated_at = $5 WHERE id = $1 AND version = $2`,
		stored.ID, expectedVersion, stored.Version, doc, stored.UpdatedAt,
	)
	if err != nil {
		return unavailable("update part", err)
	}
	if cmd.RowsAffected() == 0 {
		exists, err := r.exists(ctx, part.ID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrNotFound
		}
		return domain.ErrConflict
	}
	part.Version = stored.Version
	return nil
}

// Delete elimina una pieza por ID.
func (r *PartRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM parts WHERE id = $1`, id)
	if err != nil {
		return unavailable("delete part", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Ping verifica la conexión con una consulta trivial.
func (r *PartRepo) Ping(ctx context.Context) error {
	if _, err := r.q.Exec(ctx, `SELECT 1`); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func (r *PartRepo) exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM parts WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, unavailable("check part", err)
	}
	return exists, nil
}
