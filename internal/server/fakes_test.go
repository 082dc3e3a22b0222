package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// In-memory stand-ins for the postgres and minio backed stores, so the
// handlers and the cleaner can be exercised without containers.

type fakeUsers struct {
	mu    sync.Mutex
	plans map[string]string
}

func (f *fakeUsers) PlanFor(_ context.Context, userID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.plans == nil {
		f.plans = map[string]string{}
	}
	if p, ok := f.plans[userID]; ok {
		return p, nil
	}
	f.plans[userID] = defaultPlan
	return defaultPlan, nil
}

type fakeWallet struct {
	mu      sync.Mutex
	wallets map[string]*Wallet
}

func (f *fakeWallet) get(userID string) *Wallet {
	if f.wallets == nil {
		f.wallets = map[string]*Wallet{}
	}
	return f.wallets[userID]
}

func (f *fakeWallet) Ensure(_ context.Context, userID string, limits Limits) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.get(userID) == nil {
		f.wallets[userID] = &Wallet{UserID: userID, BaseBytes: limits.StorageCapBytes}
	}
	return nil
}

func (f *fakeWallet) Check(_ context.Context, userID string, add int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w := f.get(userID)
	if w == nil {
		return false, fmt.Errorf("no wallet for %s", userID)
	}
	return capacityOK(w.UsedBytes, w.BaseBytes, w.AddonBytes, add), nil
}

func (f *fakeWallet) Add(_ context.Context, userID string, n int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	w := f.get(userID)
	if w == nil {
		w = &Wallet{UserID: userID}
		f.wallets[userID] = w
	}
	w.UsedBytes += n
	return nil
}

func (f *fakeWallet) Sub(_ context.Context, userID string, n int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	w := f.get(userID)
	if w == nil {
		return nil
	}
	w.UsedBytes -= n
	if w.UsedBytes < 0 {
		w.UsedBytes = 0
	}
	return nil
}

func (f *fakeWallet) Snapshot(_ context.Context, userID string) (Wallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w := f.get(userID)
	if w == nil {
		return Wallet{}, fmt.Errorf("no wallet for %s", userID)
	}
	return *w, nil
}

type fakeRegistry struct {
	mu     sync.Mutex
	links  map[string]ShareLink
	assets map[string]CloudAsset

	// failNextLinkCreates forces ErrDuplicate for the next n CreateLink
	// calls, to exercise token regeneration.
	failNextLinkCreates int
	linkCreateCalls     int
}

func (f *fakeRegistry) CreateLink(_ context.Context, l ShareLink) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.linkCreateCalls++
	if f.failNextLinkCreates > 0 {
		f.failNextLinkCreates--
		return ErrDuplicate
	}
	if f.links == nil {
		f.links = map[string]ShareLink{}
	}
	if _, ok := f.links[l.Token]; ok {
		return ErrDuplicate
	}
	f.links[l.Token] = l
	return nil
}

func (f *fakeRegistry) CreateAsset(_ context.Context, a CloudAsset) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.assets == nil {
		f.assets = map[string]CloudAsset{}
	}
	if _, ok := f.assets[a.ID]; ok {
		return ErrDuplicate
	}
	f.assets[a.ID] = a
	return nil
}

func (f *fakeRegistry) GetLink(_ context.Context, token string) (ShareLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.links[token]
	if !ok {
		return ShareLink{}, ErrNotFound
	}
	return l, nil
}

func (f *fakeRegistry) ExpiredLinks(_ context.Context, now time.Time, limit int) ([]ShareLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []ShareLink
	for _, l := range f.links {
		if !now.Before(l.ExpiresAt) {
			out = append(out, l)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (f *fakeRegistry) ExpiredAssets(_ context.Context, now time.Time, limit int) ([]CloudAsset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []CloudAsset
	for _, a := range f.assets {
		if a.ExpiresAt != nil && !now.Before(*a.ExpiresAt) {
			out = append(out, a)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (f *fakeRegistry) DeleteLink(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.links, token)
	return nil
}

func (f *fakeRegistry) DeleteAsset(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.assets, id)
	return nil
}

type fakeStore struct {
	mu      sync.Mutex
	deleted []string
	// failDeletes marks keys whose object delete should fail.
	failDeletes map[string]bool
	objects     []ObjectInfo
	signErr     error
}

func (f *fakeStore) SignPut(_ context.Context, key string, _ time.Duration) (string, error) {
	if f.signErr != nil {
		return "", f.signErr
	}
	return "https://store.test/put/" + key, nil
}

func (f *fakeStore) SignGet(_ context.Context, key string, ttl time.Duration) (string, error) {
	if f.signErr != nil {
		return "", f.signErr
	}
	return fmt.Sprintf("https://store.test/get/%s?ttl=%d", key, int(ttl.Seconds())), nil
}

func (f *fakeStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDeletes[key] {
		return errors.New("store unavailable")
	}
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeStore) ListCloud(_ context.Context, max int) ([]ObjectInfo, error) {
	if len(f.objects) > max {
		return f.objects[:max], nil
	}
	return f.objects, nil
}

func (f *fakeStore) deleteCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, k := range f.deleted {
		if k == key {
			n++
		}
	}
	return n
}

func testConfig() Config {
	return Config{
		Addr:            ":0",
		Version:         "test",
		LinkTTL:         7 * 24 * time.Hour,
		FreeRetention:   30 * 24 * time.Hour,
		PutTTL:          15 * time.Minute,
		ShareGetTTL:     5 * time.Minute,
		ListGetTTL:      time.Hour,
		CleanupInterval: 10 * time.Minute,
		CleanupBatch:    100,
		RateMax:         1000,
		RateWindow:      time.Minute,
	}
}

func newTestServer() (*Server, *fakeUsers, *fakeWallet, *fakeRegistry, *fakeStore) {
	users := &fakeUsers{}
	wallet := &fakeWallet{}
	registry := &fakeRegistry{}
	store := &fakeStore{}
	s := &Server{
		cfg:      testConfig(),
		users:    users,
		wallet:   wallet,
		registry: registry,
		store:    store,
	}
	return s, users, wallet, registry, store
}
