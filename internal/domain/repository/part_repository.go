package repository

import (
	"context"

	"github.com/Tweltz1/Project-Tracking/internal/domain/entity"
)

// PartRepository define el puerto de persistencia para Part (almacén de documentos por ID).
// Los fallos de infraestructura se envuelven con domain.ErrStoreUnavailable.
type PartRepository interface {
	List(ctx context.Context) ([]*entity.Part, error)
	// GetByID devuelve (nil, nil) si la pieza no existe.
	GetByID(ctx context.Context, id string) (*entity.Part, error)
	// Create inserta la pieza con Version=1. domain.ErrDuplicate si el ID ya existe.
	Create(ctx context.Context, part *entity.Part) error
	// Replace sustituye el documento solo si la versión almacenada es expectedVersion
	// (domain.ErrConflict si no, domain.ErrNotFound si no existe). Incrementa part.Version.
	Replace(ctx context.Context, part *entity.Part, expectedVersion int64) error
	// Delete elimina por ID. domain.ErrNotFound si no existe.
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}
