// Package memory implementa el almacén de piezas en memoria (desarrollo y tests).
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Tweltz1/Project-Tracking/internal/domain"
	"github.com/Tweltz1/Project-Tracking/internal/domain/entity"
	"github.com/Tweltz1/Project-Tracking/internal/domain/repository"
)

var _ repository.PartRepository = (*PartRepo)(nil)

// PartRepo guarda copias de las piezas; ningún puntero devuelto comparte estado con el mapa.
type PartRepo struct {
	mu    sync.RWMutex
	parts map[string]entity.Part
}

// NewPartRepository construye el almacén vacío.
func NewPartRepository() *PartRepo {
	return &PartRepo{parts: make(map[string]entity.Part)}
}

// List devuelve todas las piezas ordenadas por ID.
func (r *PartRepo) List(_ context.Context) ([]*entity.Part, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*entity.Part, 0, len(r.parts))
	for _, p := range r.parts {
		c := p.Clone()
		list = append(list, &c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

// GetByID obtiene una pieza por ID.
func (r *PartRepo) GetByID(_ context.Context, id string) (*entity.Part, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.parts[id]
	if !ok {
		return nil, nil
	}
	c := p.Clone()
	return &c, nil
}

// Create inserta una pieza nueva con versión 1.
func (r *PartRepo) Create(_ context.Context, part *entity.Part) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.parts[part.ID]; ok {
		return domain.ErrDuplicate
	}
	part.Version = 1
	r.parts[part.ID] = part.Clone()
	return nil
}

// Replace sustituye la pieza si la versión almacenada coincide.
func (r *PartRepo) Replace(_ context.Context, part *entity.Part, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.parts[part.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if current.Version != expectedVersion {
		return domain.ErrConflict
	}
	part.Version = expectedVersion + 1
	r.parts[part.ID] = part.Clone()
	return nil
}

// Delete elimina una pieza por ID.
func (r *PartRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.parts[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.parts, id)
	return nil
}

// Ping siempre responde: el almacén vive en el proceso.
func (r *PartRepo) Ping(_ context.Context) error { return nil }
