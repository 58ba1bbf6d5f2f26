package echoapi

import (
	"strconv"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/academic"
	"github.com/trezcool/academia/core/account"
)

const (
	contextTokenKey = "userToken"
	contextActorKey = "actor"
)

// Claims represents the authorization claims transmitted via a JWT.
// The subject is the account id.
type Claims struct {
	jwt.StandardClaims
	Email string       `json:"email,omitempty"`
	Role  account.Role `json:"role"`
}

func (c Claims) Actor() (academic.Actor, error) {
	id, err := strconv.Atoi(c.Subject)
	if err != nil || id <= 0 {
		return academic.Actor{}, errUnauthorized
	}
	return academic.Actor{AccountID: id, Role: c.Role, Email: c.Email}, nil
}

func jwtConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	}
}

// NewClaims returns the Claims of `acc`, valid for the configured JWT expiration delta.
func NewClaims(conf *core.Config, acc account.Account, now time.Time) *Claims {
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   strconv.Itoa(acc.ID),
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Email: acc.Email,
		Role:  acc.Role,
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)
	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextActor(ctx echo.Context) (academic.Actor, error) {
	if actor, ok := ctx.Get(contextActorKey).(academic.Actor); ok {
		return actor, nil
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return academic.Actor{}, err
	}
	actor, err := claims.Actor()
	if err != nil {
		return academic.Actor{}, err
	}
	ctx.Set(contextActorKey, actor)
	return actor, nil
}
