package main

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/lmsexplorer/lmsexplorer/core"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Username string `json:"username,omitempty"`
	IsAdmin  bool   `json:"is_admin,omitempty"`
}

func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    "adminToken",
		Claims:        new(Claims),
	}
}

func getAdminClaims(conf *core.Config) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   conf.Server.AdminUsername,
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Username: conf.Server.AdminUsername,
		IsAdmin:  true,
	}
}

func authenticate(uname, pwd string, conf *core.Config) (*Claims, error) {
	unameOK := subtle.ConstantTimeCompare([]byte(uname), []byte(conf.Server.AdminUsername)) == 1
	pwdOK := subtle.ConstantTimeCompare([]byte(pwd), []byte(conf.Server.AdminPassword)) == 1
	if !(unameOK && pwdOK) {
		return nil, errAuthenticationFailed
	}
	return getAdminClaims(conf), nil
}

// generateToken generates a signed JWT token string representing the admin Claims.
func generateToken(claims *Claims, conf *core.Config) (string, error) {
	method := jwt.GetSigningMethod(middleware.AlgorithmHS256)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

type authApi struct {
	conf     *core.Config
	validate *validator.Validate
}

func registerAuthAPI(g *echo.Group, conf *core.Config, validate *validator.Validate) {
	api := authApi{conf: conf, validate: validate}
	g.Group("/auth").POST("/login", api.login)
}

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := authenticate(data.Username, data.Password, api.conf)
	if err != nil {
		return err
	}
	token, err := generateToken(claims, api.conf)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

type (
	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Username = core.CleanString(lr.Username, true /* lower */)
	return validate.Struct(lr)
}
