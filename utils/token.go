package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/meinhoongagan/gym-booking/models"
)

// JWTIssuer signs HS256 access tokens carrying {id, email, role, exp}.
type JWTIssuer struct {
	Secret []byte
	TTL    time.Duration
	Now    func() time.Time
}

func NewJWTIssuer(secret string, ttl time.Duration) *JWTIssuer {
	return &JWTIssuer{Secret: []byte(secret), TTL: ttl, Now: time.Now}
}

func (j *JWTIssuer) Issue(u *models.User) (string, error) {
	now := j.Now()
	claims := jwt.MapClaims{
		"id":    u.ID.String(),
		"email": u.Email,
		"role":  string(u.Role),
		"iat":   now.Unix(),
		"exp":   now.Add(j.TTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.Secret)
}

var ErrInvalidClaims = errors.New("invalid token claims")

// SubjectFromClaims extracts the user id from a verified token.
func SubjectFromClaims(token *jwt.Token) (uuid.UUID, error) {
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, ErrInvalidClaims
	}
	raw, ok := claims["id"].(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("%w: missing id", ErrInvalidClaims)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidClaims, err)
	}
	return id, nil
}
