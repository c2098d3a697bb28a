package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Tweltz1/Project-Tracking/internal/domain/repository"
	"github.com/Tweltz1/Project-Tracking/internal/infrastructure/postgres"
	"github.com/Tweltz1/Project-Tracking/internal/infrastructure/storetest"
	"github.com/Tweltz1/Project-Tracking/pkg/config"
)

// setupTestPool levanta PostgreSQL en Docker con testcontainers y devuelve un pool con el esquema creado.
func setupTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("omitido: TEST_INTEGRATION no está definida")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"docker.io/postgres:16-alpine",
		tcpostgres.WithDatabase("project_tracking_test"),
		tcpostgres.WithUsername("tracker"),
		tcpostgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "no se pudo iniciar el contenedor PostgreSQL")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("error al detener el contenedor: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: dsn, MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, postgres.EnsureSchema(ctx, pool))
	return pool
}

func TestPartRepo_Contrato(t *testing.T) {
	pool := setupTestPool(t)
	storetest.RunPartRepositoryContract(t, func(t *testing.T) repository.PartRepository {
		_, err := pool.Exec(context.Background(), `TRUNCATE parts`)
		require.NoError(t, err)
		return postgres.NewPartRepository(pool)
	})
}
