package httpserver

import (
	"context"
	"net/http"
	"strings"

	"mb-basketd/internal/auth"
	"mb-basketd/internal/httputil"
)

type ctxKey string

const operatorKey ctxKey = "operator"

func WithAuth(svc *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			parts := strings.SplitN(authz, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{Error: "missing bearer token"})
				return
			}
			operator, err := svc.ParseToken(parts[1])
			if err != nil {
				httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{Error: "invalid token"})
				return
			}
			ctx := context.WithValue(r.Context(), operatorKey, operator)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func Operator(r *http.Request) (string, bool) {
	v := r.Context().Value(operatorKey)
	if v == nil {
		return "", false
	}
	name, ok := v.(string)
	return name, ok
}
