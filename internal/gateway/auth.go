package gateway

import (
	"crypto/subtle"
	"net/http"
	"os"
	"strings"

	"github.com/soyeahso/supportdesk/internal/config"
)

// ResolvedAuth holds the resolved auth configuration for the API server.
type ResolvedAuth struct {
	Mode  string
	Token string
}

// ResolveAuth resolves authentication credentials from config and environment.
// Precedence: config value → env variable → empty.
func ResolveAuth(cfg config.ServerAuth) ResolvedAuth {
	auth := ResolvedAuth{Mode: cfg.Mode, Token: cfg.Token}
	if auth.Token == "" {
		auth.Token = os.Getenv("SUPPORTDESK_API_TOKEN")
	}
	if auth.Mode == "" {
		auth.Mode = "token"
	}
	return auth
}

// Authorize checks a request's bearer credentials against the resolved auth.
// WebSocket clients may pass the token via the access_token query parameter
// since browsers cannot set headers on upgrade requests.
func Authorize(auth ResolvedAuth, r *http.Request) bool {
	if auth.Mode == "none" {
		return true
	}
	if auth.Token == "" {
		// Fail closed: token mode without a configured token admits nobody.
		return false
	}

	presented := bearerToken(r)
	if presented == "" {
		presented = r.URL.Query().Get("access_token")
	}
	return safeEqual(presented, auth.Token)
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimPrefix(header, prefix)
}

// safeEqual performs a constant-time string comparison to prevent timing
// attacks, including leaking the secret length.
func safeEqual(a, b string) bool {
	lenMatch := subtle.ConstantTimeEq(int32(len(a)), int32(len(b)))
	cmp := subtle.ConstantTimeCompare([]byte(a), []byte(b))
	return subtle.ConstantTimeSelect(lenMatch, cmp, 0) == 1
}
