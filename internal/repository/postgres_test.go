package repository_test

import (
	"log/slog"
	"regexp"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/roadcall/dispatch/internal/models"
	"github.com/roadcall/dispatch/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listPushCandidatesQuery = `
		SELECT id, full_name, COALESCE(push_token, ''), COALESCE(email, ''),
			COALESCE(location, ''), COALESCE(service_radius_km, 0), COALESCE(services, '{}')
		FROM public.profiles
		WHERE
			role = 'provider'
			AND push_token IS NOT NULL AND push_token <> '';
	`

const listEmailCandidatesQuery = `
		SELECT id, full_name, COALESCE(push_token, ''), COALESCE(email, ''),
			COALESCE(location, ''), COALESCE(service_radius_km, 0), COALESCE(services, '{}')
		FROM public.profiles
		WHERE
			role = 'provider'
			AND email IS NOT NULL AND email <> '';
	`

const getRequesterQuery = `
		SELECT id, full_name, COALESCE(email, '')
		FROM public.profiles
		WHERE id = $1;
	`

func candidateColumns() []string {
	return []string{"id", "full_name", "push_token", "email", "location", "service_radius_km", "services"}
}

func TestListCandidates(t *testing.T) {
	t.Parallel()
	logger := slog.Default()
	ctx := t.Context()

	t.Run("success - push channel", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectQuery(regexp.QuoteMeta(listPushCandidatesQuery)).
			WillReturnRows(
				pgxmock.NewRows(candidateColumns()).
					AddRow("prov-1", "Ali Towing", "token-1", "ali@example.com",
						"31.5204,74.3587", 25.0, []string{"towing"}).
					AddRow("prov-2", "Okara Mechanics", "token-2", "",
						`{"latitude": 30.81, "longitude": 73.45}`, 0.0, []string{}),
			)

		providers, err := repo.ListCandidates(ctx, models.ChannelPush)

		require.NoError(t, err)
		require.Len(t, providers, 2)
		assert.Equal(t, "prov-1", providers[0].ID)
		assert.Equal(t, "token-1", providers[0].PushToken)
		assert.InEpsilon(t, 25.0, providers[0].RadiusKm, 1e-9)
		assert.Equal(t, []string{"towing"}, providers[0].Services)
		assert.Zero(t, providers[1].RadiusKm)
		assert.Empty(t, providers[1].Services)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - email channel filters on email", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectQuery(regexp.QuoteMeta(listEmailCandidatesQuery)).
			WillReturnRows(pgxmock.NewRows(candidateColumns()))

		providers, err := repo.ListCandidates(ctx, models.ChannelEmail)

		require.NoError(t, err)
		assert.Empty(t, providers)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - query candidates", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectQuery(regexp.QuoteMeta(listPushCandidatesQuery)).
			WillReturnError(assert.AnError)

		providers, err := repo.ListCandidates(ctx, models.ChannelPush)

		require.Nil(t, providers)
		require.Error(t, err)
		require.ErrorContains(t, err, "failed to query provider candidates")
		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - scan candidate", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectQuery(regexp.QuoteMeta(listPushCandidatesQuery)).
			WillReturnRows(
				pgxmock.NewRows(candidateColumns()).
					AddRow("prov-1", "Ali Towing", "token-1", "", "31.5,74.3", "not-a-number", []string{}),
			)

		providers, err := repo.ListCandidates(ctx, models.ChannelPush)

		require.Nil(t, providers)
		require.Error(t, err)
		require.ErrorContains(t, err, "failed to scan provider candidate")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - rows error", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectQuery(regexp.QuoteMeta(listPushCandidatesQuery)).
			WillReturnRows(
				pgxmock.NewRows(candidateColumns()).
					AddRow("prov-1", "Ali Towing", "token-1", "", "31.5,74.3", 25.0, []string{}).
					RowError(1, assert.AnError),
			)

		providers, err := repo.ListCandidates(ctx, models.ChannelPush)

		require.Nil(t, providers)
		require.Error(t, err)
		require.ErrorContains(t, err, "failed to read row")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetRequester(t *testing.T) {
	t.Parallel()
	logger := slog.Default()
	ctx := t.Context()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectQuery(regexp.QuoteMeta(getRequesterQuery)).
			WithArgs("user-1").
			WillReturnRows(
				pgxmock.NewRows([]string{"id", "full_name", "email"}).
					AddRow("user-1", "Bilal", "bilal@example.com"),
			)

		requester, err := repo.GetRequester(ctx, "user-1")

		require.NoError(t, err)
		assert.Equal(t, "Bilal", requester.Name)
		assert.Equal(t, "bilal@example.com", requester.Email)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectQuery(regexp.QuoteMeta(getRequesterQuery)).
			WithArgs("ghost").
			WillReturnRows(pgxmock.NewRows([]string{"id", "full_name", "email"}))

		requester, err := repo.GetRequester(ctx, "ghost")

		require.Nil(t, requester)
		require.ErrorIs(t, err, repository.ErrRequesterNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query error", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectQuery(regexp.QuoteMeta(getRequesterQuery)).
			WithArgs("user-1").
			WillReturnError(assert.AnError)

		requester, err := repo.GetRequester(ctx, "user-1")

		require.Nil(t, requester)
		require.Error(t, err)
		require.ErrorContains(t, err, "failed to query requester")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
