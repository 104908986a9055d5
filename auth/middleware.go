package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type contextKey string

const doctorContextKey contextKey = "doctor"

// DoctorFromContext returns the authenticated doctor injected by Middleware.
func DoctorFromContext(ctx context.Context) (Doctor, bool) {
	d, ok := ctx.Value(doctorContextKey).(Doctor)
	return d, ok
}

// ContextWithDoctor stores an authenticated doctor in the context the same
// way Middleware does.
func ContextWithDoctor(ctx context.Context, doctor Doctor) context.Context {
	return context.WithValue(ctx, doctorContextKey, doctor)
}

// Middleware rejects requests without a live bearer session and stores the
// authenticated doctor in the request context for downstream handlers.
func Middleware(sessions *SessionManager, doctors *DoctorStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				unauthorized(w, "Not authenticated")
				return
			}

			doctorID, ok := sessions.Resolve(token)
			if !ok {
				unauthorized(w, "Invalid or expired token")
				return
			}

			// A session outliving its doctor record is a credential failure
			doctor, ok := doctors.GetDoctor(doctorID)
			if !ok {
				unauthorized(w, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithDoctor(r.Context(), doctor)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	return token, token != ""
}

// unauthorized mirrors the error shape of handlers.RespondWithError, which
// this package cannot import without creating a cycle.
func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]any{
		"error":   http.StatusText(http.StatusUnauthorized),
		"message": msg,
		"code":    http.StatusUnauthorized,
	})
}
