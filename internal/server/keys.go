package server

import (
	"crypto/rand"
	"encoding/base64"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Object key scopes. Free-plan cloud files live under their own prefix so
// retention applies to them without touching permanent storage.
const (
	scopeLink      = "link"
	scopeCloudFree = "cloud/free"
	scopeCloudPerm = "cloud/perm"
)

const (
	maxFilenameLen = 180
	maxOwnerLen    = 24
)

// sanitizeFilename reduces a client-supplied name to [A-Za-z0-9._-],
// capped in length. Everything else becomes an underscore.
func sanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	s := b.String()
	if len(s) > maxFilenameLen {
		s = s[:maxFilenameLen]
	}
	s = strings.Trim(s, "._")
	if s == "" {
		s = "unnamed"
	}
	return s
}

// makeKey builds a collision-resistant object key:
//
//	<scope>/<yyyy-mm-dd>/<owner>/<random id>-<sanitized name>
//
// The random id guarantees uniqueness even for identical filenames from
// the same owner in the same instant.
func makeKey(scope, ownerID, filename string) string {
	day := time.Now().UTC().Format("2006-01-02")
	owner := sanitizeFilename(ownerID)
	if len(owner) > maxOwnerLen {
		owner = owner[:maxOwnerLen]
	}
	return scope + "/" + day + "/" + owner + "/" + randomID(8) + "-" + sanitizeFilename(filename)
}

// randomID returns n random bytes base64url-encoded, no padding.
func randomID(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// newShareToken mints an unguessable share token (18 bytes, 24 chars).
func newShareToken() string {
	return randomID(18)
}

// newAssetID mints a cloud asset id.
func newAssetID() string {
	return uuid.NewString()
}
