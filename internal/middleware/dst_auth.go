package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/fhuszti/media-pipeline/internal/api_context"
	"github.com/fhuszti/media-pipeline/internal/handler/api"
)

// clockSkew tolerates issuers whose clock runs slightly ahead.
const clockSkew = 30 * time.Second

// AuthConfig describes the short-lived tokens accepted by WithDSTAuth.
type AuthConfig struct {
	PublicKeyPEM string
	Issuer       string
	Audience     string
}

var (
	errBadIssuer   = errors.New("bad issuer")
	errBadAudience = errors.New("bad audience")
	errExpired     = errors.New("token expired")
	errIssuedLater = errors.New("invalid iat")
	errNoSubject   = errors.New("missing sub")
)

// WithDSTAuth validates a short-lived RS256 Bearer token and stores the
// caller in the request context. An empty public key disables the check.
func WithDSTAuth(cfg AuthConfig) func(http.Handler) http.Handler {
	if cfg.PublicKeyPEM == "" {
		return func(next http.Handler) http.Handler { return next }
	}

	pubKey, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.PublicKeyPEM))
	if err != nil {
		panic(fmt.Sprintf("invalid JWT RSA public key: %v", err))
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Name}),
		jwt.WithJSONNumber(),
	)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || raw == "" {
				api.WriteError(w, http.StatusUnauthorized, "missing bearer token", nil)
				return
			}

			claims := jwt.MapClaims{}
			tok, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) { return pubKey, nil })
			if err != nil || !tok.Valid {
				api.WriteError(w, http.StatusUnauthorized, "unauthorized", err)
				return
			}

			p, err := principalFromClaims(claims, cfg, time.Now())
			if err != nil {
				api.WriteError(w, http.StatusUnauthorized, err.Error(), nil)
				return
			}
			next.ServeHTTP(w, r.WithContext(api_context.WithPrincipal(r.Context(), p)))
		})
	}
}

// principalFromClaims checks the registered claims of an already verified
// token and extracts the caller.
func principalFromClaims(claims jwt.MapClaims, cfg AuthConfig, now time.Time) (api_context.Principal, error) {
	switch {
	case !claims.VerifyIssuer(cfg.Issuer, true):
		return api_context.Principal{}, errBadIssuer
	case !claims.VerifyAudience(cfg.Audience, true):
		return api_context.Principal{}, errBadAudience
	case !claims.VerifyExpiresAt(now.Unix(), true):
		return api_context.Principal{}, errExpired
	}
	if iat, ok := asInt64(claims["iat"]); ok && time.Unix(iat, 0).After(now.Add(clockSkew)) {
		return api_context.Principal{}, errIssuedLater
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return api_context.Principal{}, errNoSubject
	}
	return api_context.Principal{UserID: sub, Roles: stringsClaim(claims["roles"])}, nil
}

// RequireRole rejects authenticated callers lacking role. Anonymous requests,
// which only exist when WithDSTAuth is disabled, pass through.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, authed := api_context.PrincipalFromContext(r.Context())
			if authed && !p.HasRole(role) {
				api.WriteError(w, http.StatusForbidden, "forbidden", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case float64:
		return int64(x), true
	case int64:
		return x, true
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, true
		}
		if f, err := x.Float64(); err == nil {
			return int64(f), true
		}
	}
	return 0, false
}

// stringsClaim accepts either a JSON array or a space separated string.
func stringsClaim(v any) []string {
	switch vv := v.(type) {
	case string:
		return strings.Fields(vv)
	case []any:
		out := make([]string, 0, len(vv))
		for _, e := range vv {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
