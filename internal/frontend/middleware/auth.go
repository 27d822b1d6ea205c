// Package middleware contains the request pipeline for the API server.
// The pipeline order is fixed: authenticate, validate the request against
// the OpenAPI document, authorize the action, then execute the handler
// (which runs inside the store's transactional scope).
package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/dagr-org/dagr/internal/auth"
	"github.com/dagr-org/dagr/internal/config"
)

// AuthOptions configures the authentication middleware.
type AuthOptions struct {
	Realm            string
	BasicAuthEnabled bool
	APITokenEnabled  bool
	APIToken         string
	Users            []config.AuthUser
}

// AuthMiddleware authenticates the request and stores the resolved
// principal in the context. With all mechanisms disabled, requests act as
// the anonymous admin principal (single-operator deployments).
func AuthMiddleware(opts AuthOptions) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !opts.BasicAuthEnabled && !opts.APITokenEnabled {
				ctx := auth.WithUser(r.Context(), &auth.User{
					Username: "anonymous",
					Role:     auth.RoleAdmin,
				})
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			if opts.APITokenEnabled {
				token := bearerToken(r)
				if token != "" && subtle.ConstantTimeCompare([]byte(token), []byte(opts.APIToken)) == 1 {
					ctx := auth.WithUser(r.Context(), &auth.User{
						Username: "api-token",
						Role:     auth.RoleAdmin,
					})
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}

			if opts.BasicAuthEnabled {
				username, password, ok := r.BasicAuth()
				if ok {
					if user := resolveUser(opts.Users, username, password); user != nil {
						next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user)))
						return
					}
				}
				w.Header().Set("WWW-Authenticate", `Basic realm="`+opts.Realm+`"`)
			}

			unauthorized(w)
		})
	}
}

func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	return ""
}

func resolveUser(users []config.AuthUser, username, password string) *auth.User {
	for _, u := range users {
		usernameMatch := subtle.ConstantTimeCompare([]byte(u.Username), []byte(username)) == 1
		passwordMatch := subtle.ConstantTimeCompare([]byte(u.Password), []byte(password)) == 1
		if usernameMatch && passwordMatch {
			principal, err := u.Principal()
			if err != nil {
				return nil
			}
			return principal
		}
	}
	return nil
}

// RequireAction evaluates the principal's permission for the action before
// the handler runs. Unauthorized requests never reach the registry core.
func RequireAction(action auth.Action) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := auth.UserFromContext(r.Context())
			if !ok {
				unauthorized(w)
				return
			}
			if !user.Role.Can(action) {
				forbidden(w, action)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    "unauthorized",
		"message": "authentication required",
	})
}

func forbidden(w http.ResponseWriter, action auth.Action) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    "forbidden",
		"message": "permission denied for action " + string(action),
	})
}
