package server

import (
	"context"
	"net/http"
)

type ctxKey int

const ctxKeyToken ctxKey = iota

// sessionMiddleware rejects requests without a bearer token. Whether the
// token names a live session is decided by the store on first use.
func sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := tokenFromRequest(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeyToken, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionToken(r *http.Request) string {
	return r.Context().Value(ctxKeyToken).(string)
}
