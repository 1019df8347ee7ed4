package router

import (
	"net/http"
	"strings"

	"github.com/leadlinehq/leadline/internal/tenancy"
)

const clientHeader = "X-Client-Id"

// requireClientID enforces the multi-tenancy header on client API requests.
func requireClientID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := strings.TrimSpace(r.Header.Get(clientHeader))
		if clientID == "" {
			http.Error(w, "missing X-Client-Id", http.StatusUnauthorized)
			return
		}
		ctx := tenancy.WithClientID(r.Context(), clientID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
