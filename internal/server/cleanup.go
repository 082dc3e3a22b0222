package server

import (
	"context"
	"sync/atomic"
	"time"
)

// Cleaner is the periodic sweep that reclaims expired share links and
// cloud assets: object first, then accounting, then the registry row.
// Object-delete failures are logged and the row is purged anyway; the
// registry is the source of truth for what must eventually go, and an
// undeletable object must not wedge the sweep forever.
type Cleaner struct {
	registry registryStore
	wallet   walletStore
	store    ObjectStore
	interval time.Duration
	batch    int

	running atomic.Bool
}

// Run sweeps once immediately, then on every tick until ctx is cancelled.
func (c *Cleaner) Run(ctx context.Context) {
	Info("cleanup_starting", map[string]any{"interval": c.interval.String()})

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.Sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			Info("cleanup_stopping", nil)
			return
		case <-ticker.C:
			c.Sweep(ctx)
		}
	}
}

// Sweep runs one reclamation pass. It is single-flight: if a sweep is
// already in progress the call returns immediately (skip, not queue).
// Running it again with no new expirations deletes nothing.
func (c *Cleaner) Sweep(ctx context.Context) (links, assets int) {
	if !c.running.CompareAndSwap(false, true) {
		return 0, 0
	}
	defer c.running.Store(false)

	start := time.Now()
	now := start.UTC()

	expiredLinks, err := c.registry.ExpiredLinks(ctx, now, c.batch)
	if err != nil {
		Error("cleanup_query_links_failed", nil, err)
	}
	for _, l := range expiredLinks {
		if err := c.store.Delete(ctx, l.Key); err != nil {
			GetMetrics().RecordObjectDeleteError()
			Error("cleanup_object_delete_failed", map[string]any{"key": l.Key}, err)
			// Row is purged regardless; see above.
		}
		if err := c.registry.DeleteLink(ctx, l.Token); err != nil {
			Error("cleanup_row_delete_failed", map[string]any{"token": l.Token}, err)
			continue
		}
		links++
	}

	expiredAssets, err := c.registry.ExpiredAssets(ctx, now, c.batch)
	if err != nil {
		Error("cleanup_query_assets_failed", nil, err)
	}
	for _, a := range expiredAssets {
		if err := c.store.Delete(ctx, a.Key); err != nil {
			GetMetrics().RecordObjectDeleteError()
			Error("cleanup_object_delete_failed", map[string]any{"key": a.Key}, err)
		}
		// Refund the wallet before dropping the row; if the refund fails
		// the row stays so the next sweep retries both.
		if err := c.wallet.Sub(ctx, a.UserID, a.SizeBytes); err != nil {
			Error("cleanup_wallet_sub_failed", map[string]any{"user": a.UserID}, err)
			continue
		}
		if err := c.registry.DeleteAsset(ctx, a.ID); err != nil {
			Error("cleanup_row_delete_failed", map[string]any{"id": a.ID}, err)
			continue
		}
		assets++
	}

	GetMetrics().RecordCleanup(links, assets)
	Info("cleanup_complete", map[string]any{
		"links":       links,
		"assets":      assets,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return links, assets
}
