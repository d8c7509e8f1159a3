package middleware

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"midway/src/internal/dispatch"
	"midway/src/internal/pool"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Context state keys populated by the auth middleware.
const (
	StateKeyUser   = "auth.user"
	StateKeyClaims = "auth.claims"
)

// BasicAuth validates HTTP basic credentials against bcrypt hashes. The
// users map holds username to bcrypt hash (as produced by midway-passwd).
// The authenticated username is stored in the context state.
func BasicAuth(users map[string]string) dispatch.Middleware {
	return func(ctx *pool.Context, next dispatch.Next) error {
		user, pass, ok := parseBasicAuth(ctx.Header("Authorization"))
		if ok {
			if hash, exists := users[user]; exists {
				if bcrypt.CompareHashAndPassword([]byte(hash), []byte(pass)) == nil {
					ctx.Set(StateKeyUser, user)
					return next()
				}
			}
		}

		ctx.SetHeader("WWW-Authenticate", `Basic realm="midway"`)
		return dispatch.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
}

func parseBasicAuth(header string) (user, pass string, ok bool) {
	const prefix = "Basic "
	if !strings.HasPrefix(header, prefix) {
		return "", "", false
	}

	decoded, err := base64.StdEncoding.DecodeString(header[len(prefix):])
	if err != nil {
		return "", "", false
	}

	user, pass, found := strings.Cut(string(decoded), ":")
	if !found {
		return "", "", false
	}
	return user, pass, true
}

// BearerAuth validates an HMAC-signed JWT bearer token. Verified claims are
// stored in the context state for downstream middleware.
func BearerAuth(secret []byte) dispatch.Middleware {
	return func(ctx *pool.Context, next dispatch.Next) error {
		const prefix = "Bearer "
		header := ctx.Header("Authorization")
		if !strings.HasPrefix(header, prefix) {
			return dispatch.NewHTTPError(http.StatusUnauthorized, "bearer token required")
		}

		token, err := jwt.Parse(header[len(prefix):], func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			return dispatch.NewHTTPError(http.StatusUnauthorized, "invalid token")
		}

		if claims, ok := token.Claims.(jwt.MapClaims); ok {
			ctx.Set(StateKeyClaims, claims)
		}
		return next()
	}
}
