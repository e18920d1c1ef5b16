package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shaj13/go-guardian/auth"
	"github.com/shaj13/go-guardian/auth/strategies/bearer"
	"github.com/shaj13/go-guardian/store"
	"go.uber.org/zap"

	"github.com/linesmerrill/clinic-messaging-api/models"
)

// TokenCacheTTL is how long a verified token is kept before it is parsed again
const TokenCacheTTL = 10 * time.Minute

// Claims are carried by a viewer's identity token
type Claims struct {
	Name string      `json:"name"`
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator resolves the viewer behind a bearer token
type Authenticator struct {
	secret        []byte
	authenticator auth.Authenticator
	now           func() time.Time
}

// NewAuthenticator sets up go-guardian with a cached bearer strategy whose
// tokens are HS256 JWTs signed with secret
func NewAuthenticator(secret string) *Authenticator {
	a := &Authenticator{secret: []byte(secret), now: time.Now}
	cache := store.NewFIFO(context.Background(), TokenCacheTTL)
	a.authenticator = auth.New()
	a.authenticator.EnableStrategy(bearer.CachedStrategyKey, bearer.New(a.ValidateToken, cache))
	return a
}

// ValidateToken verifies a JWT and turns its claims into a go-guardian user.
// The role is kept as the user's only group and the expiry as the "exp"
// extension, since the cached user outlives the parse.
func (a *Authenticator) ValidateToken(_ context.Context, _ *http.Request, token string) (auth.Info, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	if !claims.Role.Valid() {
		return nil, fmt.Errorf("token has unknown role %q", claims.Role)
	}
	if claims.ExpiresAt == nil {
		return nil, errors.New("token has no expiry")
	}
	ext := map[string][]string{"exp": {strconv.FormatInt(claims.ExpiresAt.Unix(), 10)}}
	return auth.NewDefaultUser(claims.Name, claims.Subject, []string{string(claims.Role)}, ext), nil
}

// expired reports whether a cached user's token is past its expiry
func (a *Authenticator) expired(user auth.Info) bool {
	exp := user.Extensions()["exp"]
	if len(exp) == 0 {
		return true
	}
	sec, err := strconv.ParseInt(exp[0], 10, 64)
	if err != nil {
		return true
	}
	return !a.now().Before(time.Unix(sec, 0))
}

// Middleware rejects requests without a valid bearer token and stores the
// viewer in the request context. Websocket clients may pass the token in the
// access_token query parameter instead of the Authorization header.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			if t := r.URL.Query().Get("access_token"); t != "" {
				r = r.Clone(r.Context())
				r.Header.Set("Authorization", "Bearer "+t)
			}
		}
		user, err := a.authenticator.Authenticate(r)
		if err == nil && a.expired(user) {
			err = errors.New("token expired")
		}
		if err != nil {
			zap.S().Errorw("unauthorized",
				"url", r.URL.Path,
				"error", err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error": "unauthorized"}`))
			return
		}
		viewer := models.Viewer{ID: user.ID(), Name: user.UserName()}
		if groups := user.Groups(); len(groups) > 0 {
			viewer.Role = models.Role(groups[0])
		}
		zap.S().Debugf("User %s Authenticated", viewer.ID)
		next.ServeHTTP(w, r.WithContext(WithViewer(r.Context(), viewer)))
	})
}

// IssueToken signs an identity token for a viewer
func IssueToken(secret string, viewer models.Viewer, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Name: viewer.Name,
		Role: viewer.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   viewer.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
