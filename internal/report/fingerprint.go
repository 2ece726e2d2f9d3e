package report

import (
	"crypto/md5" //nolint:gosec // cache key, not a security boundary
	"encoding/hex"
)

// Fingerprint derives the cache key for a URL: the hex MD5 digest of the
// raw string. Deliberately no normalization; trailing slashes, casing and
// query parameters all produce distinct keys.
func Fingerprint(rawURL string) string {
	sum := md5.Sum([]byte(rawURL)) //nolint:gosec
	return hex.EncodeToString(sum[:])
}
