package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the shortest accepted HMAC key / Longueur minimale de la clé HMAC
const MinSecretLength = 32

var (
	ErrWeakSecret     = errors.New("JWT key too weak")
	ErrInvalidIssuer  = errors.New("invalid issuer")
	ErrMissingSubject = errors.New("token has no subject")
)

// ActorClaims carries the acting user of a request / Porte l'utilisateur agissant d'une requête
type ActorClaims struct {
	jwt.RegisteredClaims
	Name string `json:"name,omitempty"`
}

// Verifier checks bearer tokens against one secret and issuer.
//
// Verifier vérifie les tokens avec une clé et un émetteur.
type Verifier struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewVerifier creates a token verifier / Crée un vérificateur de tokens
func NewVerifier(secret, issuer string) (*Verifier, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrWeakSecret
	}
	return &Verifier{secret: []byte(secret), issuer: issuer, now: time.Now}, nil
}

// GenerateToken signs a token for the given user / Signe un token pour l'utilisateur
func (v *Verifier) GenerateToken(userID, name string, ttl time.Duration) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, ErrMissingSubject
	}
	now := v.now()
	expiresAt := now.Add(ttl)
	claims := &ActorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    v.issuer,
		},
		Name: name,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// ValidateJWT validates a token and returns its claims / Valide le token JWT
func (v *Verifier) ValidateJWT(tokenStr string) (*ActorClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &ActorClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing algorithm: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithTimeFunc(v.now))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*ActorClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if v.issuer != "" && claims.Issuer != v.issuer {
		return nil, ErrInvalidIssuer
	}
	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}
	return claims, nil
}

// ActingUser returns the subject of a valid token / Retourne le sujet d'un token valide
func (v *Verifier) ActingUser(tokenStr string) (string, error) {
	claims, err := v.ValidateJWT(tokenStr)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}
