package repository_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/roadcall/dispatch/internal/models"
	"github.com/roadcall/dispatch/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const profilesSchema = `
	CREATE TABLE public.profiles (
		id TEXT PRIMARY KEY,
		full_name TEXT NOT NULL,
		role TEXT NOT NULL,
		push_token TEXT,
		email TEXT,
		location TEXT,
		service_radius_km DOUBLE PRECISION,
		services TEXT[]
	);
`

// TestRepository_Integration runs the real queries against a disposable
// Postgres container. Requires Docker; gated behind an env flag so the
// regular test run stays hermetic.
func TestRepository_Integration(t *testing.T) {
	if os.Getenv("DISPATCH_INTEGRATION") == "" {
		t.Skip("set DISPATCH_INTEGRATION=1 to run container-backed tests")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("dispatch"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(ctx))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, profilesSchema)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `
		INSERT INTO public.profiles (id, full_name, role, push_token, email, location, service_radius_km, services)
		VALUES
			('prov-1', 'Ali Towing', 'provider', 'token-1', 'ali@example.com', '31.5204,74.3587', 25, '{towing}'),
			('prov-2', 'Okara Mechanics', 'provider', NULL, 'okara@example.com', 'Okara bypass', NULL, '{}'),
			('user-1', 'Bilal', 'trucker', NULL, 'bilal@example.com', NULL, NULL, NULL);
	`)
	require.NoError(t, err)

	repo := repository.NewRepository(pool, slog.Default())

	t.Run("push candidates require a token", func(t *testing.T) {
		providers, err := repo.ListCandidates(ctx, models.ChannelPush)

		require.NoError(t, err)
		require.Len(t, providers, 1)
		assert.Equal(t, "prov-1", providers[0].ID)
		assert.InEpsilon(t, 25.0, providers[0].RadiusKm, 1e-9)
		assert.Equal(t, []string{"towing"}, providers[0].Services)
	})

	t.Run("email candidates include tokenless providers", func(t *testing.T) {
		providers, err := repo.ListCandidates(ctx, models.ChannelEmail)

		require.NoError(t, err)
		require.Len(t, providers, 2)
	})

	t.Run("requester lookup", func(t *testing.T) {
		requester, err := repo.GetRequester(ctx, "user-1")

		require.NoError(t, err)
		assert.Equal(t, "Bilal", requester.Name)

		_, err = repo.GetRequester(ctx, "missing")
		require.ErrorIs(t, err, repository.ErrRequesterNotFound)
	})
}
