package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/roadcall/dispatch/internal/models"
)

// ErrRequesterNotFound is returned when the requester lookup matches no row.
var ErrRequesterNotFound = errors.New("requester not found")

// ListCandidates retrieves every registered provider that has a usable
// contact address for the given channel. Providers with a NULL or empty
// address for that channel can never be notified there, so they are filtered
// out at the database rather than in the dispatcher.
//
// Location, radius and services are returned as stored; messy location data
// is resolved later, per provider, so one bad record cannot fail the query.
func (r *Repository) ListCandidates(ctx context.Context, channel models.Channel) ([]models.Provider, error) {
	contactColumn := "push_token"
	if channel == models.ChannelEmail {
		contactColumn = "email"
	}

	query := fmt.Sprintf(`
		SELECT id, full_name, COALESCE(push_token, ''), COALESCE(email, ''),
			COALESCE(location, ''), COALESCE(service_radius_km, 0), COALESCE(services, '{}')
		FROM public.profiles
		WHERE
			role = 'provider'
			AND %s IS NOT NULL AND %s <> '';
	`, contactColumn, contactColumn)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query provider candidates: %w", err)
	}
	defer rows.Close()

	var providers []models.Provider
	for rows.Next() {
		var provider models.Provider
		errScan := rows.Scan(
			&provider.ID, &provider.Name, &provider.PushToken, &provider.Email,
			&provider.RawLocation, &provider.RadiusKm, &provider.Services,
		)
		if errScan != nil {
			return nil, fmt.Errorf("failed to scan provider candidate: %w", errScan)
		}
		r.log.DebugContext(ctx, "Provider candidate loaded",
			"ID", provider.ID, "channel", channel)
		providers = append(providers, provider)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read row: %w", err)
	}

	return providers, nil
}

// GetRequester looks up the display name and email of the trucker who
// created a request. Used by the email channel to personalize messages.
func (r *Repository) GetRequester(ctx context.Context, id string) (*models.Requester, error) {
	query := `
		SELECT id, full_name, COALESCE(email, '')
		FROM public.profiles
		WHERE id = $1;
	`

	var requester models.Requester
	err := r.db.QueryRow(ctx, query, id).Scan(&requester.ID, &requester.Name, &requester.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRequesterNotFound
		}
		return nil, fmt.Errorf("failed to query requester: %w", err)
	}

	return &requester, nil
}
