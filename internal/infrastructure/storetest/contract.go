// Package storetest contiene la batería de pruebas común a todos los drivers de PartRepository.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tweltz1/Project-Tracking/internal/domain"
	"github.com/Tweltz1/Project-Tracking/internal/domain/entity"
	"github.com/Tweltz1/Project-Tracking/internal/domain/repository"
)

// Factory construye un repositorio vacío y aislado para cada subtest.
type Factory func(t *testing.T) repository.PartRepository

// NewPart devuelve una pieza válida con un registro initial-add.
func NewPart(id string, qty int) *entity.Part {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	return &entity.Part{
		ID:            id,
		Name:          "Part " + id,
		Location:      "Shelf A",
		SerialNumber:  "SN-" + id,
		ProjectName:   "Apollo",
		ProjectNumber: "PRJ-1",
		Description:   "test part",
		Quantity:      qty,
		Status:        entity.StatusReceived,
		History: []entity.HistoryEntry{
			{Type: entity.HistoryInitialAdd, Change: qty, Timestamp: ts, User: "alice"},
		},
		CreatedAt: ts,
		UpdatedAt: ts,
	}
}

// RunPartRepositoryContract ejecuta la batería contra el driver.
func RunPartRepositoryContract(t *testing.T, newRepo Factory) {
	t.Helper()
	ctx := context.Background()

	t.Run("CreateYGetByID", func(t *testing.T) {
		repo := newRepo(t)
		p := NewPart("C-1", 4)
		require.NoError(t, repo.Create(ctx, p))
		assert.Equal(t, int64(1), p.Version)

		got, err := repo.GetByID(ctx, "C-1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, p.Name, got.Name)
		assert.Equal(t, p.SerialNumber, got.SerialNumber)
		assert.Equal(t, 4, got.Quantity)
		assert.Equal(t, entity.StatusReceived, got.Status)
		assert.Equal(t, int64(1), got.Version)
		require.Len(t, got.History, 1)
		assert.Equal(t, entity.HistoryInitialAdd, got.History[0].Type)
		assert.Equal(t, 4, got.History[0].Change)
		assert.True(t, p.History[0].Timestamp.Equal(got.History[0].Timestamp))
	})

	t.Run("GetByIDInexistente", func(t *testing.T) {
		repo := newRepo(t)
		got, err := repo.GetByID(ctx, "nope")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("CreateDuplicado", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, NewPart("D-1", 1)))
		err := repo.Create(ctx, NewPart("D-1", 2))
		require.ErrorIs(t, err, domain.ErrDuplicate)
	})

	t.Run("ListOrdenadoPorID", func(t *testing.T) {
		repo := newRepo(t)
		for _, id := range []string{"L-3", "L-1", "L-2"} {
			require.NoError(t, repo.Create(ctx, NewPart(id, 1)))
		}
		list, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, "L-1", list[0].ID)
		assert.Equal(t, "L-2", list[1].ID)
		assert.Equal(t, "L-3", list[2].ID)
	})

	t.Run("ReplaceConVersionCorrecta", func(t *testing.T) {
		repo := newRepo(t)
		p := NewPart("R-1", 10)
		require.NoError(t, repo.Create(ctx, p))

		p.Quantity = 7
		p.History = append(p.History, entity.HistoryEntry{
			Type: entity.HistoryCheckOut, Change: 3, Timestamp: time.Now().UTC(), User: "bob",
		})
		require.NoError(t, repo.Replace(ctx, p, 1))
		assert.Equal(t, int64(2), p.Version)

		got, err := repo.GetByID(ctx, "R-1")
		require.NoError(t, err)
		assert.Equal(t, 7, got.Quantity)
		assert.Equal(t, int64(2), got.Version)
		require.Len(t, got.History, 2)
		assert.Equal(t, entity.HistoryCheckOut, got.History[1].Type)
	})

	t.Run("ReplaceConVersionObsoleta", func(t *testing.T) {
		repo := newRepo(t)
		p := NewPart("R-2", 10)
		require.NoError(t, repo.Create(ctx, p))
		first := *p
		require.NoError(t, repo.Replace(ctx, &first, 1))

		stale := NewPart("R-2", 99)
		err := repo.Replace(ctx, stale, 1)
		require.ErrorIs(t, err, domain.ErrConflict)

		got, err := repo.GetByID(ctx, "R-2")
		require.NoError(t, err)
		assert.Equal(t, 10, got.Quantity, "la escritura obsoleta no debe aplicarse")
	})

	t.Run("ReplaceInexistente", func(t *testing.T) {
		repo := newRepo(t)
		err := repo.Replace(ctx, NewPart("ghost", 1), 1)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("StatusUpdateSinChange", func(t *testing.T) {
		repo := newRepo(t)
		p := NewPart("S-1", 2)
		require.NoError(t, repo.Create(ctx, p))
		p.Status = entity.StatusInWork
		p.History = append(p.History, entity.HistoryEntry{
			Type: entity.HistoryStatusUpdate, OldStatus: entity.StatusReceived, NewStatus: entity.StatusInWork,
			Timestamp: time.Now().UTC(), User: "carol",
		})
		require.NoError(t, repo.Replace(ctx, p, 1))

		got, err := repo.GetByID(ctx, "S-1")
		require.NoError(t, err)
		last := got.History[len(got.History)-1]
		assert.Equal(t, entity.StatusReceived, last.OldStatus)
		assert.Equal(t, entity.StatusInWork, last.NewStatus)
		assert.Equal(t, 0, last.Change)
	})

	t.Run("Delete", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, NewPart("X-1", 1)))
		require.NoError(t, repo.Delete(ctx, "X-1"))

		got, err := repo.GetByID(ctx, "X-1")
		require.NoError(t, err)
		assert.Nil(t, got)

		require.ErrorIs(t, repo.Delete(ctx, "X-1"), domain.ErrNotFound)
	})

	t.Run("Ping", func(t *testing.T) {
		require.NoError(t, newRepo(t).Ping(ctx))
	})
}
