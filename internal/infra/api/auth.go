package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"chitfund-backend/internal/domain"
	"chitfund-backend/internal/infra/logging"
)

type Role string

const (
	RoleUser     Role = "user"
	RoleMerchant Role = "merchant"
)

// Principal is the authenticated caller.
type Principal struct {
	ID   string
	Role Role
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	ctx = logging.WithPrincipal(ctx, p.ID, string(p.Role))
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AuthManager verifies HS256 bearer tokens. Issuance belongs to the identity
// service; Mint exists for tooling and tests.
type AuthManager struct {
	secret []byte
}

func NewAuthManager(secret string) *AuthManager {
	return &AuthManager{secret: []byte(secret)}
}

func (a *AuthManager) Mint(subject string, role Role, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *AuthManager) ParseFromRequest(r *http.Request) (Principal, error) {
	hdr := r.Header.Get("Authorization")
	if len(hdr) < 7 || !strings.EqualFold(hdr[:7], "bearer ") {
		return Principal{}, errors.New("missing bearer token")
	}
	return a.parse(strings.TrimSpace(hdr[7:]))
}

func (a *AuthManager) parse(tok string) (Principal, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tkn.Valid {
		return Principal{}, errors.New("invalid token")
	}
	role := Role(claims.Role)
	if claims.Subject == "" || (role != RoleUser && role != RoleMerchant) {
		return Principal{}, errors.New("invalid token claims")
	}
	return Principal{ID: claims.Subject, Role: role}, nil
}

// Authenticate rejects requests without a valid token.
func Authenticate(a *AuthManager, logger *zerolog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := a.ParseFromRequest(r)
			if err != nil {
				logging.With(r.Context(), logger).Debug().Err(err).Msg("authentication failed")
				WriteError(w, r, logger, domain.ErrUnauthenticated)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// RequireRole admits only principals holding role.
func RequireRole(role Role, logger *zerolog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFrom(r.Context())
			if !ok {
				WriteError(w, r, logger, domain.ErrUnauthenticated)
				return
			}
			if p.Role != role {
				WriteError(w, r, logger, domain.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
