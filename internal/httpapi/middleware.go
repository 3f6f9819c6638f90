package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"storefront/catnav/internal/service"

	chiMid "github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
)

type ctxKey int

const ctxKeyPermissions ctxKey = iota

// PermissionsHeader carries the comma separated permission flags granted by
// the access-control gateway in front of this service.
const PermissionsHeader = "X-Permissions"

// RequireToken rejects requests without a bearer token. Verifying the
// token is the gateway's job.
func RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		if !strings.HasPrefix(auth, "Bearer ") || token == "" {
			writeMessage(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithPermissions parses the permissions header into the request context.
func WithPermissions(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		perms := service.NewPermissions(strings.Split(r.Header.Get(PermissionsHeader), ",")...)
		ctx := context.WithValue(r.Context(), ctxKeyPermissions, perms)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func permissionsFrom(ctx context.Context) service.Permissions {
	perms, _ := ctx.Value(ctxKeyPermissions).(service.Permissions)
	return perms
}

// VaryLocale marks responses as depending on Accept-Language.
func VaryLocale(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Accept-Language")
		next.ServeHTTP(w, r)
	})
}

// RequestLogger logs one line per request.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chiMid.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		entry := log.WithFields(log.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      status,
			"duration_ms": time.Since(start).Milliseconds(),
			"remote_ip":   r.RemoteAddr,
			"request_id":  chiMid.GetReqID(r.Context()),
		})
		if status >= http.StatusInternalServerError {
			entry.Warn("request failed")
			return
		}
		entry.Debug("request")
	})
}
