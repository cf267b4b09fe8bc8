package service

import (
	"context"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/smallbiznis/propostas/internal/auth/domain"
	"github.com/smallbiznis/propostas/internal/clock"
	"github.com/smallbiznis/propostas/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Config config.Config
	Log    *zap.Logger
	Clock  clock.Clock
}

type accessClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

// JWTVerifier validates HS256 access tokens signed with the identity
// provider's project secret.
type JWTVerifier struct {
	log      *zap.Logger
	clock    clock.Clock
	secret   []byte
	audience string
	issuer   string
}

func NewVerifier(p Params) domain.Verifier {
	return &JWTVerifier{
		log:      p.Log.Named("auth.verifier"),
		clock:    p.Clock,
		secret:   []byte(p.Config.Auth.JWTSecret),
		audience: p.Config.Auth.Audience,
		issuer:   p.Config.Auth.Issuer,
	}
}

func (v *JWTVerifier) Verify(ctx context.Context, rawToken string) (domain.Identity, error) {
	if len(v.secret) == 0 {
		return domain.Identity{}, domain.ErrNotConfigured
	}
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return domain.Identity{}, domain.ErrUnauthorized
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.clock.Now),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var claims accessClaims
	token, err := jwt.ParseWithClaims(rawToken, &claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		v.log.Debug("token rejected", zap.Error(err))
		return domain.Identity{}, domain.ErrUnauthorized
	}

	userID, err := uuid.Parse(strings.TrimSpace(claims.Subject))
	if err != nil || userID == uuid.Nil {
		return domain.Identity{}, domain.ErrUnauthorized
	}

	return domain.Identity{
		UserID: userID,
		Email:  strings.ToLower(strings.TrimSpace(claims.Email)),
		Role:   claims.Role,
	}, nil
}
