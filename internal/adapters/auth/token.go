package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"eventsocials/internal/domain"
)

type sessionClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

type jwtIssuer struct {
	secret []byte
	expiry time.Duration
}

// NewJWTIssuer returns a TokenIssuer/TokenVerifier pair backed by HS256 JWTs
// with the given secret and expiry.
func NewJWTIssuer(secret string, expiry time.Duration) *jwtIssuer {
	return &jwtIssuer{secret: []byte(secret), expiry: expiry}
}

func (i *jwtIssuer) Issue(userID, email string) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.expiry)),
		},
		Email: email,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

func (i *jwtIssuer) Verify(tokenString string) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &sessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", fmt.Errorf("invalid session token: %w", err)
	}
	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || claims.Subject == "" {
		return "", fmt.Errorf("invalid session token claims")
	}
	return claims.Subject, nil
}

type joinActionClaims struct {
	jwt.RegisteredClaims
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
	Status   string `json:"status"`
	JoinID   string `json:"join_id"`
}

type joinActionCodec struct {
	secret []byte
}

// NewJoinActionCodec returns a JoinActionCodec that signs action tokens with
// HS256 using the given secret. Tokens carry no expiry: they stay valid until
// the join request they target leaves pending. The JWT compact serialization
// is URL-safe, so tokens can travel as a path segment.
func NewJoinActionCodec(secret string) domain.JoinActionCodec {
	return &joinActionCodec{secret: []byte(secret)}
}

func (c *joinActionCodec) Encode(action domain.JoinAction) (string, error) {
	claims := joinActionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
		Sender:   action.Sender,
		Receiver: action.Receiver,
		Status:   string(action.Status),
		JoinID:   action.JoinID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign action token: %w", err)
	}
	return tokenString, nil
}

func (c *joinActionCodec) Decode(tokenString string) (domain.JoinAction, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &joinActionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil || !parsed.Valid {
		return domain.JoinAction{}, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*joinActionClaims)
	if !ok {
		return domain.JoinAction{}, domain.ErrInvalidToken
	}
	status := domain.JoinRequestStatus(claims.Status)
	if !status.IsTerminal() || claims.JoinID == "" || claims.Sender == "" {
		return domain.JoinAction{}, fmt.Errorf("%w: incomplete claims", domain.ErrInvalidToken)
	}
	return domain.JoinAction{
		Sender:   claims.Sender,
		Receiver: claims.Receiver,
		Status:   status,
		JoinID:   claims.JoinID,
	}, nil
}
