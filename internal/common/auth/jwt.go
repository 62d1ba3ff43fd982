// internal/common/auth/jwt.go
package auth

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"onboarding-service/internal/common/config"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = stderrors.New("bearer token is missing")
	ErrInvalidToken = stderrors.New("bearer token is invalid")
	ErrMissingEmail = stderrors.New("token carries no user email")
)

// Identity is the authenticated applicant. UserEmail scopes every draft and
// application.
type Identity struct {
	Subject   string
	UserEmail string
}

type contextKey struct{}

func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}

// Verifier validates HS256 bearer tokens issued by the authentication service.
type Verifier struct {
	secret     []byte
	emailClaim string
	parser     *jwt.Parser
}

func NewVerifier(cfg config.AuthConfig) *Verifier {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(time.Duration(cfg.JWT.LeewaySecs) * time.Second),
		jwt.WithExpirationRequired(),
	}
	if cfg.JWT.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.JWT.Issuer))
	}
	if cfg.JWT.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.JWT.Audience))
	}

	claim := cfg.JWT.EmailClaim
	if claim == "" {
		claim = "email"
	}

	return &Verifier{
		secret:     []byte(cfg.JWT.Secret),
		emailClaim: claim,
		parser:     jwt.NewParser(opts...),
	}
}

// VerifyHeader accepts an Authorization header value.
func (v *Verifier) VerifyHeader(header string) (Identity, error) {
	header = strings.TrimSpace(header)
	const bearerPrefix = "Bearer "
	if header == "" || !strings.HasPrefix(header, bearerPrefix) {
		return Identity{}, ErrMissingToken
	}
	return v.Verify(strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix)))
}

func (v *Verifier) Verify(tokenString string) (Identity, error) {
	if tokenString == "" {
		return Identity{}, ErrMissingToken
	}

	claims := jwt.MapClaims{}
	token, err := v.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	email, _ := claims[v.emailClaim].(string)
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return Identity{}, ErrMissingEmail
	}
	sub, _ := claims.GetSubject()

	return Identity{Subject: sub, UserEmail: email}, nil
}

// IssueToken signs a token the Verifier accepts. Used by the dev token tool
// and tests; production tokens come from the authentication service.
func IssueToken(cfg config.AuthConfig, subject, email string, ttl time.Duration) (string, error) {
	claim := cfg.JWT.EmailClaim
	if claim == "" {
		claim = "email"
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": subject,
		claim: email,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	if cfg.JWT.Issuer != "" {
		claims["iss"] = cfg.JWT.Issuer
	}
	if cfg.JWT.Audience != "" {
		claims["aud"] = cfg.JWT.Audience
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWT.Secret))
}
