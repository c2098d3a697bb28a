package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tweltz1/Project-Tracking/internal/domain/repository"
	"github.com/Tweltz1/Project-Tracking/internal/infrastructure/sqlite"
	"github.com/Tweltz1/Project-Tracking/internal/infrastructure/storetest"
)

func openTemp(t *testing.T) *sqlite.PartRepo {
	t.Helper()
	repo, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "parts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestPartRepo_Contrato(t *testing.T) {
	storetest.RunPartRepositoryContract(t, func(t *testing.T) repository.PartRepository {
		return openTemp(t)
	})
}

// Los datos sobreviven al cierre y reapertura del archivo.
func TestPartRepo_PersisteEntreAperturas(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "parts.db")

	repo, err := sqlite.Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, storetest.NewPart("K-1", 8)))
	require.NoError(t, repo.Close())

	reopened, err := sqlite.Open(ctx, path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	got, err := reopened.GetByID(ctx, "K-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 8, got.Quantity)
	assert.Equal(t, int64(1), got.Version)
}
