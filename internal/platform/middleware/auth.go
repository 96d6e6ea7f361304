package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"researchmatch/internal/token"
	"researchmatch/pkg/requestcontext"
)

// RequireAuth verifies the bearer access token and stores the identity claims
// in the request context. Domain state is never touched before this check.
func RequireAuth(tokens *token.Service, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			header := r.Header.Get("Authorization")
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || raw == "" {
				logger.WarnContext(ctx, "unauthorized access, missing bearer token",
					"request_id", requestcontext.RequestID(ctx))
				writeAuthError(w, "BAD_REQUEST")
				return
			}

			claims, err := tokens.Verify(raw, token.ClassAccess)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access, invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx))
				writeAuthError(w, "BAD_REQUEST")
				return
			}

			ctx = requestcontext.WithAccountID(ctx, claims.AccountID)
			ctx = requestcontext.WithEmail(ctx, claims.Email)
			ctx = requestcontext.WithDisplayName(ctx, claims.DisplayName)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write(fmt.Appendf(nil,
		`{"error":{"status":%d,"message":"%s"}}`, http.StatusUnauthorized, message))
}
