package server

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound means no row exists for the given token or id.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate means the token or id already exists. Tokens carry
	// enough entropy that this is exceptional; the caller regenerates and
	// retries rather than overwriting.
	ErrDuplicate = errors.New("duplicate token")
)

// ShareLink is an ephemeral public link: token -> object key, always with
// an expiry.
type ShareLink struct {
	Token     string
	UserID    string
	Key       string
	SizeBytes int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

// CloudAsset is a cloud-resident object. ExpiresAt is nil for permanent
// storage; the free plan sets a retention deadline.
type CloudAsset struct {
	ID        string
	UserID    string
	Key       string
	SizeBytes int64
	CreatedAt time.Time
	ExpiresAt *time.Time
}

// registryStore owns the link and asset rows. It is the single source of
// truth for which objects must eventually be deleted from the store.
// Expiry is judged by callers; GetLink returns expired rows as-is so the
// resolver can distinguish Expired (410) from NotFound (404).
type registryStore interface {
	CreateLink(ctx context.Context, l ShareLink) error
	CreateAsset(ctx context.Context, a CloudAsset) error
	GetLink(ctx context.Context, token string) (ShareLink, error)
	ExpiredLinks(ctx context.Context, now time.Time, limit int) ([]ShareLink, error)
	ExpiredAssets(ctx context.Context, now time.Time, limit int) ([]CloudAsset, error)
	DeleteLink(ctx context.Context, token string) error
	DeleteAsset(ctx context.Context, id string) error
}

type postgresRegistry struct {
	db *sql.DB
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *postgresRegistry) CreateLink(ctx context.Context, l ShareLink) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO links (token, user_id, s3_key, size_bytes, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		l.Token, l.UserID, l.Key, l.SizeBytes, l.CreatedAt, l.ExpiresAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *postgresRegistry) CreateAsset(ctx context.Context, a CloudAsset) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO cloud_files (id, user_id, s3_key, size_bytes, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.UserID, a.Key, a.SizeBytes, a.CreatedAt, a.ExpiresAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *postgresRegistry) GetLink(ctx context.Context, token string) (ShareLink, error) {
	var l ShareLink
	err := r.db.QueryRowContext(ctx,
		`SELECT token, COALESCE(user_id, ''), s3_key, size_bytes, created_at, expires_at
		 FROM links WHERE token = $1`,
		token,
	).Scan(&l.Token, &l.UserID, &l.Key, &l.SizeBytes, &l.CreatedAt, &l.ExpiresAt)
	if err == sql.ErrNoRows {
		return ShareLink{}, ErrNotFound
	}
	if err != nil {
		return ShareLink{}, err
	}
	return l, nil
}

func (r *postgresRegistry) ExpiredLinks(ctx context.Context, now time.Time, limit int) ([]ShareLink, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT token, COALESCE(user_id, ''), s3_key, size_bytes, created_at, expires_at
		 FROM links WHERE expires_at <= $1 ORDER BY expires_at ASC LIMIT $2`,
		now, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ShareLink
	for rows.Next() {
		var l ShareLink
		if err := rows.Scan(&l.Token, &l.UserID, &l.Key, &l.SizeBytes, &l.CreatedAt, &l.ExpiresAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *postgresRegistry) ExpiredAssets(ctx context.Context, now time.Time, limit int) ([]CloudAsset, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, s3_key, size_bytes, created_at, expires_at
		 FROM cloud_files WHERE expires_at IS NOT NULL AND expires_at <= $1
		 ORDER BY expires_at ASC LIMIT $2`,
		now, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CloudAsset
	for rows.Next() {
		var a CloudAsset
		if err := rows.Scan(&a.ID, &a.UserID, &a.Key, &a.SizeBytes, &a.CreatedAt, &a.ExpiresAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *postgresRegistry) DeleteLink(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM links WHERE token = $1`, token)
	return err
}

func (r *postgresRegistry) DeleteAsset(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cloud_files WHERE id = $1`, id)
	return err
}
