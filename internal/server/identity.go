package server

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
)

// identityHeader carries the opaque caller identity. It is not an
// authentication scheme: any non-empty value names a user, created on
// first sight with the default plan.
const identityHeader = "x-mixtli-token"

// identityFrom extracts the caller identity, or "" when absent.
func identityFrom(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(identityHeader))
}

// userStore resolves a caller identity to its plan, creating the user row
// on first request.
type userStore interface {
	PlanFor(ctx context.Context, userID string) (string, error)
}

type postgresUsers struct {
	db *sql.DB
}

func (u *postgresUsers) PlanFor(ctx context.Context, userID string) (string, error) {
	_, err := u.db.ExecContext(ctx,
		`INSERT INTO users (id, plan) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`,
		userID, defaultPlan,
	)
	if err != nil {
		return "", err
	}

	var plan string
	err = u.db.QueryRowContext(ctx, `SELECT plan FROM users WHERE id = $1`, userID).Scan(&plan)
	if err != nil {
		return "", err
	}
	return plan, nil
}
