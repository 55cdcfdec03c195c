// Package jwt emite y valida los tokens de acceso. La API solo los valida;
// Generate existe para herramientas internas y pruebas.
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity lo que el token afirma sobre quien llama.
// CompanyID va vacío para el administrador de plataforma.
type Identity struct {
	UserID    string
	CompanyID string
	Role      string // superadmin | admin | vendedor | bodeguero
}

// Claims el usuario viaja en sub; empresa y rol como claims propios.
type Claims struct {
	jwt.RegisteredClaims
	CompanyID string `json:"company_id,omitempty"`
	Role      string `json:"role"`
}

var errNoSecret = errors.New("jwt: secret vacío")

// Generate firma un token HS256 para id con vigencia ttl.
func Generate(secret, issuer string, id Identity, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errNoSecret
	}
	if id.UserID == "" {
		return "", errors.New("jwt: usuario vacío")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		CompanyID: id.CompanyID,
		Role:      id.Role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Parse valida firma, vencimiento y, si issuer no está vacío, el emisor.
func Parse(secret, issuer, tokenString string) (Identity, error) {
	if secret == "" {
		return Identity{}, errNoSecret
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		return Identity{}, fmt.Errorf("jwt: %w", err)
	}
	if claims.Subject == "" {
		return Identity{}, errors.New("jwt: token sin sub")
	}
	return Identity{UserID: claims.Subject, CompanyID: claims.CompanyID, Role: claims.Role}, nil
}
