package server

import (
	"context"
	"database/sql"
)

// Wallet is one user's storage accounting row. base_bytes snapshots the
// plan cap at creation; addon_bytes is purchased extra; used_bytes is the
// running total maintained by commits and the cleaner.
type Wallet struct {
	UserID     string `json:"-"`
	BaseBytes  int64  `json:"baseBytes"`
	AddonBytes int64  `json:"addonBytes"`
	UsedBytes  int64  `json:"usedBytes"`
}

// walletStore is the quota ledger. All mutations are single atomic
// statements so concurrent commits cannot corrupt used_bytes; the
// check-then-add window in the handlers is a documented best-effort
// guard, not a hard guarantee.
type walletStore interface {
	Ensure(ctx context.Context, userID string, limits Limits) error
	Check(ctx context.Context, userID string, add int64) (bool, error)
	Add(ctx context.Context, userID string, n int64) error
	Sub(ctx context.Context, userID string, n int64) error
	Snapshot(ctx context.Context, userID string) (Wallet, error)
}

// capacityOK reports whether a wallet can absorb add more bytes.
// Exactly at cap is allowed.
func capacityOK(used, base, addon, add int64) bool {
	return used+add <= base+addon
}

type postgresWallet struct {
	db *sql.DB
}

func (w *postgresWallet) Ensure(ctx context.Context, userID string, limits Limits) error {
	_, err := w.db.ExecContext(ctx,
		`INSERT INTO storage_wallet (user_id, base_bytes) VALUES ($1, $2)
		 ON CONFLICT (user_id) DO NOTHING`,
		userID, limits.StorageCapBytes,
	)
	return err
}

func (w *postgresWallet) Check(ctx context.Context, userID string, add int64) (bool, error) {
	var used, base, addon int64
	err := w.db.QueryRowContext(ctx,
		`SELECT used_bytes, base_bytes, addon_bytes FROM storage_wallet WHERE user_id = $1`,
		userID,
	).Scan(&used, &base, &addon)
	if err != nil {
		return false, err
	}
	return capacityOK(used, base, addon, add), nil
}

func (w *postgresWallet) Add(ctx context.Context, userID string, n int64) error {
	_, err := w.db.ExecContext(ctx,
		`INSERT INTO storage_wallet (user_id, base_bytes, used_bytes) VALUES ($1, 0, $2)
		 ON CONFLICT (user_id) DO UPDATE
		 SET used_bytes = storage_wallet.used_bytes + EXCLUDED.used_bytes`,
		userID, n,
	)
	return err
}

// Sub clamps at zero: a double delete or registry/ledger drift must never
// drive used_bytes negative.
func (w *postgresWallet) Sub(ctx context.Context, userID string, n int64) error {
	_, err := w.db.ExecContext(ctx,
		`UPDATE storage_wallet SET used_bytes = GREATEST(used_bytes - $2, 0) WHERE user_id = $1`,
		userID, n,
	)
	return err
}

func (w *postgresWallet) Snapshot(ctx context.Context, userID string) (Wallet, error) {
	wal := Wallet{UserID: userID}
	err := w.db.QueryRowContext(ctx,
		`SELECT base_bytes, addon_bytes, used_bytes FROM storage_wallet WHERE user_id = $1`,
		userID,
	).Scan(&wal.BaseBytes, &wal.AddonBytes, &wal.UsedBytes)
	if err != nil {
		return Wallet{}, err
	}
	return wal, nil
}
