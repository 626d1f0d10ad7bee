package tokens

import (
	"crypto/rand"
	"encoding/hex"
	"io"
	"net/http"
	"strings"
)

const (
	// Size is the number of random bytes behind a token; its hex form is
	// 64 characters long.
	Size = 32

	QueryParam = "access_token"
)

// New returns a fresh opaque token read from crypto/rand.
func New() (string, error) {
	return newFrom(rand.Reader)
}

func newFrom(r io.Reader) (string, error) {
	buf := make([]byte, Size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// FromRequest extracts a bearer token from the Authorization header, falling
// back to the access_token query parameter. It returns "" when neither is set.
func FromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, value, ok := strings.Cut(strings.TrimSpace(h), " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(value)
		}
		return ""
	}
	return strings.TrimSpace(r.URL.Query().Get(QueryParam))
}
