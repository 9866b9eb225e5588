// internal/cache/key.go
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// maxKeyLen keeps keys within the 250-character limit enforced by the
// stricter cache backends (legacy memcached protocol).
const maxKeyLen = 240

const keyPrefix = "gh:"

// BuildKey derives a deterministic cache key from an API endpoint and its
// query parameters. The endpoint is normalized to an ASCII-safe token and the
// sorted parameter set is hashed to 8 hex characters, so insertion order of
// the params map never changes the key. Keys that would exceed maxKeyLen are
// replaced wholesale by a hash of themselves.
func BuildKey(endpoint string, params map[string]string) string {
	key := keyPrefix + safeToken(endpoint) + ":" + paramsHash(params)
	if len(key) > maxKeyLen {
		sum := sha256.Sum256([]byte(key))
		key = keyPrefix + hex.EncodeToString(sum[:])
	}
	return key
}

// safeToken replaces every character outside [a-zA-Z0-9] with an underscore.
func safeToken(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func paramsHash(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:4])
}
