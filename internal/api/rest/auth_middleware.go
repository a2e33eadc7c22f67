package rest

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/davidleathers/campaign-dialer/internal/domain/errors"
)

// Claims are the JWT claims the API relies on
type Claims struct {
	jwt.RegisteredClaims
	OrgID string `json:"org_id"`
}

// AuthMiddleware validates HS256 bearer tokens and puts the org_id claim on
// the request context
type AuthMiddleware struct {
	secret []byte
	base   *baseHandler
}

// NewAuthMiddleware creates the middleware
func NewAuthMiddleware(secret string, base *baseHandler) *AuthMiddleware {
	return &AuthMiddleware{secret: []byte(secret), base: base}
}

// Middleware returns the authentication middleware function
func (a *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := extractToken(r)
		if err != nil {
			a.base.writeError(w, r, err)
			return
		}

		orgID, err := a.validate(token)
		if err != nil {
			a.base.writeError(w, r, errors.NewUnauthorizedError("Invalid or expired token").WithCause(err))
			return
		}

		ctx := context.WithValue(r.Context(), contextKeyOrgID, orgID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errors.NewUnauthorizedError("Authorization required")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", errors.NewUnauthorizedError("Invalid authorization format")
	}
	return parts[1], nil
}

func (a *AuthMiddleware) validate(tokenString string) (uuid.UUID, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return uuid.Nil, err
	}
	if !token.Valid {
		return uuid.Nil, fmt.Errorf("token is not valid")
	}

	orgID, err := uuid.Parse(claims.OrgID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("org_id claim is not a UUID: %w", err)
	}
	return orgID, nil
}

// IssueToken signs a token for orgID. Used by operators and tests.
func IssueToken(secret string, orgID uuid.UUID, claims jwt.RegisteredClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: claims, OrgID: orgID.String()})
	return token.SignedString([]byte(secret))
}
