// Package auth authenticates operators of the bridge API.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	apperrors "github.com/chainsafe/crosschain-bridge/pkg/app/errors"
	apphttp "github.com/chainsafe/crosschain-bridge/pkg/app/http"
)

// RoleOperator is the role claim required for liquidity management.
const RoleOperator = "operator"

var (
	ErrMissingToken  = errors.New("missing bearer token")
	ErrForbiddenRole = errors.New("token does not carry the operator role")
)

// Claims are the JWT claims of an operator token.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTValidator validates HS256 operator tokens signed with a shared secret
type JWTValidator struct {
	secret []byte
	issuer string
}

// NewJWTValidator creates a new JWT validator. An empty issuer disables the issuer check.
func NewJWTValidator(secret, issuer string) *JWTValidator {
	return &JWTValidator{
		secret: []byte(secret),
		issuer: issuer,
	}
}

// IsConfigured returns true if a signing secret is set
func (v *JWTValidator) IsConfigured() bool {
	return len(v.secret) > 0
}

// ValidateToken validates a JWT token and returns the claims
func (v *JWTValidator) ValidateToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.Role != RoleOperator {
		return nil, ErrForbiddenRole
	}
	return claims, nil
}

// IssueToken signs an operator token for subject valid for ttl.
func (v *JWTValidator) IssueToken(subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Role: RoleOperator,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// Middleware rejects requests without a valid operator token and stores the
// operator in the request context. An unconfigured validator lets every
// request through.
func (v *JWTValidator) Middleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !v.IsConfigured() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				apphttp.DefaultErrorHandler(w, apperrors.UnAuthorizedError(ErrMissingToken, "missing bearer token"))
				return
			}

			claims, err := v.ValidateToken(tokenString)
			if err != nil {
				logger.Warn("Rejected operator token",
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
				apphttp.DefaultErrorHandler(w, apperrors.UnAuthorizedError(err, "invalid operator token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithOperator(r.Context(), claims.Subject)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	const prefix = "bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(h[len(prefix):]), true
}
