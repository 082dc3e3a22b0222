package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func doCommit(t *testing.T, s *Server, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/api/commit", strings.NewReader(body))
	if token != "" {
		r.Header.Set(identityHeader, token)
	}
	w := httptest.NewRecorder()
	s.handleCommit(w, r)
	return w
}

func TestCommitLinkCreatesRow(t *testing.T) {
	s, _, _, registry, _ := newTestServer()

	w := doCommit(t, s, "u1", `{"mode":"link","key":"link/2026-09-01/u1/abc-f.txt","fileId":"x","size":1024}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		OK        bool   `json:"ok"`
		Token     string `json:"token"`
		URL       string `json:"url"`
		ExpiresAt string `json:"expiresAt"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if !resp.OK || resp.Token == "" {
		t.Fatalf("bad response: %+v", resp)
	}
	if resp.URL != "/s/"+resp.Token {
		t.Fatalf("url = %q", resp.URL)
	}

	link, err := registry.GetLink(nil, resp.Token)
	if err != nil {
		t.Fatalf("row not created: %v", err)
	}
	if link.SizeBytes != 1024 || link.UserID != "u1" {
		t.Fatalf("row = %+v", link)
	}

	// Expiry honors the configured 7-day TTL.
	expires, err := time.Parse(time.RFC3339, resp.ExpiresAt)
	if err != nil {
		t.Fatalf("bad expiresAt: %v", err)
	}
	want := time.Now().Add(7 * 24 * time.Hour)
	if d := expires.Sub(want); d > time.Minute || d < -time.Minute {
		t.Fatalf("expiresAt %v too far from %v", expires, want)
	}
}

func TestCommitLinkRetriesOnDuplicateToken(t *testing.T) {
	s, _, _, registry, _ := newTestServer()
	registry.failNextLinkCreates = 1

	w := doCommit(t, s, "u1", `{"mode":"link","key":"link/a/b-c.txt","fileId":"x","size":10}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if registry.linkCreateCalls != 2 {
		t.Fatalf("create calls = %d, want 2", registry.linkCreateCalls)
	}
}

func TestCommitCloudChargesWallet(t *testing.T) {
	s, _, wallet, registry, _ := newTestServer()

	w := doCommit(t, s, "u1", `{"mode":"cloud","key":"cloud/free/a/b-c.bin","fileId":"f1","size":`+itoa(4*gib)+`}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	snap, err := wallet.Snapshot(nil, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if snap.UsedBytes != 4*gib {
		t.Fatalf("used = %d, want %d", snap.UsedBytes, 4*gib)
	}
	if _, ok := registry.assets["f1"]; !ok {
		t.Fatal("asset row missing")
	}

	// A second 2 GiB cloud commit must be rejected: 4+2 > 5 GiB cap.
	w = doCommit(t, s, "u1", `{"mode":"cloud","key":"cloud/free/a/b-d.bin","fileId":"f2","size":`+itoa(2*gib)+`}`)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
	if snap, _ := wallet.Snapshot(nil, "u1"); snap.UsedBytes != 4*gib {
		t.Fatalf("used drifted to %d", snap.UsedBytes)
	}
}

func TestCommitCloudRetentionByPlan(t *testing.T) {
	s, users, _, registry, _ := newTestServer()
	users.plans = map[string]string{"freeuser": "free", "prouser": "pro"}

	doCommit(t, s, "freeuser", `{"mode":"cloud","key":"cloud/free/a/x.bin","fileId":"a1","size":10}`)
	doCommit(t, s, "prouser", `{"mode":"cloud","key":"cloud/perm/a/x.bin","fileId":"a2","size":10}`)

	if a := registry.assets["a1"]; a.ExpiresAt == nil {
		t.Fatal("free plan asset must carry a retention deadline")
	}
	if a := registry.assets["a2"]; a.ExpiresAt != nil {
		t.Fatalf("paid plan asset must be permanent, got %v", a.ExpiresAt)
	}
}

func TestCommitValidation(t *testing.T) {
	s, _, _, _, _ := newTestServer()
	cases := []struct {
		name string
		body string
		want int
	}{
		{"bad mode", `{"mode":"x","key":"link/a","fileId":"f","size":1}`, http.StatusBadRequest},
		{"missing key", `{"mode":"link","fileId":"f","size":1}`, http.StatusBadRequest},
		{"zero size", `{"mode":"link","key":"link/a","fileId":"f","size":0}`, http.StatusBadRequest},
		{"cloud key under link mode", `{"mode":"link","key":"cloud/free/a","fileId":"f","size":1}`, http.StatusBadRequest},
		{"link key under cloud mode", `{"mode":"cloud","key":"link/a","fileId":"f","size":1}`, http.StatusBadRequest},
		{"over transfer cap", `{"mode":"link","key":"link/a","fileId":"f","size":` + itoa(4*gib) + `}`, http.StatusRequestEntityTooLarge},
	}
	for _, c := range cases {
		if w := doCommit(t, s, "u1", c.body); w.Code != c.want {
			t.Fatalf("%s: status = %d, want %d", c.name, w.Code, c.want)
		}
	}
}
