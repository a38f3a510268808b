package utils

import (
	"context"

	"github.com/rahal-app/rahal-backend/internal/identity"
)

type contextKey string

const (
	ContextUserIDKey contextKey = "userID"
	ContextTokenKey  contextKey = "token"
)

// WithToken stores a verified session token and its subject on ctx.
func WithToken(ctx context.Context, tok *identity.Token) context.Context {
	ctx = context.WithValue(ctx, ContextTokenKey, tok)
	return context.WithValue(ctx, ContextUserIDKey, tok.UID)
}

func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID := ctx.Value(ContextUserIDKey)
	userIDStr, ok := userID.(string)
	return userIDStr, ok && userIDStr != ""
}

func GetTokenFromContext(ctx context.Context) (*identity.Token, bool) {
	tok, ok := ctx.Value(ContextTokenKey).(*identity.Token)
	return tok, ok && tok != nil
}
