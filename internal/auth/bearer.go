package auth

import (
	"strings"

	"github.com/rahal-app/rahal-backend/internal/autherr"
)

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header value.
func BearerToken(header string) (string, error) {
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", autherr.ErrMissingToken
	}
	tok := strings.TrimSpace(header[len(prefix):])
	if tok == "" || strings.ContainsAny(tok, " \t") {
		return "", autherr.ErrMissingToken
	}
	return tok, nil
}
