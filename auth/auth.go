package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Kotlang/fasalneetiGo/logger"
	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	UserTypeFarmer = "farmer"
	UserTypeAdmin  = "admin"

	// ClaimsKey is the echo context key holding the verified *jwt.StandardClaims.
	ClaimsKey = "claims"
)

var ErrInvalidToken = errors.New("invalid token")

type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// GetToken signs an HS256 token whose Id is the principal and Subject its user type.
func (t *TokenIssuer) GetToken(principalId, userType string) (string, error) {
	now := time.Now()
	claims := jwt.StandardClaims{
		Id:        principalId,
		Subject:   userType,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(t.ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

func (t *TokenIssuer) Verify(token string) (*jwt.StandardClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.StandardClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*jwt.StandardClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func reject(c echo.Context, code int, message string) error {
	return c.JSON(code, map[string]interface{}{
		"success": false,
		"message": message,
	})
}

// bearerClaims verifies the Authorization header. On failure the 401 is already written and
// claims is nil.
func (t *TokenIssuer) bearerClaims(c echo.Context) (*jwt.StandardClaims, error) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" || token == header {
		return nil, reject(c, http.StatusUnauthorized, "Authorization token required")
	}

	claims, err := t.Verify(token)
	if err != nil {
		logger.Warn("Rejected token", zap.String("path", c.Path()))
		return nil, reject(c, http.StatusUnauthorized, "Invalid or expired token")
	}
	return claims, nil
}

// RequireUserType rejects requests without a valid bearer token of the given user type.
func (t *TokenIssuer) RequireUserType(userType string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := t.bearerClaims(c)
			if claims == nil {
				return err
			}
			if claims.Subject != userType {
				logger.Warn("Rejected token", zap.String("path", c.Path()), zap.String("requiredType", userType))
				return reject(c, http.StatusUnauthorized, "Invalid or expired token")
			}

			c.Set(ClaimsKey, claims)
			return next(c)
		}
	}
}

// RequireOwner admits the farmer whose id is in path parameter param, and admins.
func (t *TokenIssuer) RequireOwner(param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := t.bearerClaims(c)
			if claims == nil {
				return err
			}

			owner := claims.Subject == UserTypeFarmer && claims.Id == c.Param(param)
			if !owner && claims.Subject != UserTypeAdmin {
				logger.Warn("Rejected foreign profile access", zap.String("path", c.Path()), zap.String("principal", claims.Id))
				return reject(c, http.StatusForbidden, "Not allowed to change this profile")
			}

			c.Set(ClaimsKey, claims)
			return next(c)
		}
	}
}

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword compares in constant time; an empty hash never matches.
func CheckPassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
