package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-min-32-chars-long-1234567890"

func newTestVerifier(t *testing.T, issuer string) *Verifier {
	t.Helper()
	v, err := NewVerifier(testSecret, issuer)
	require.NoError(t, err)
	return v
}

// TestNewVerifierWeakSecret tests that weak secrets are rejected.
func TestNewVerifierWeakSecret(t *testing.T) {
	v, err := NewVerifier("short", "freightdesk")
	assert.Nil(t, v)
	assert.ErrorIs(t, err, ErrWeakSecret)
}

// TestGenerateToken tests that a minted token round-trips to its acting user.
func TestGenerateToken(t *testing.T) {
	v := newTestVerifier(t, "freightdesk")

	token, expiresAt, err := v.GenerateToken("user-42", "Claire Martin", 15*time.Minute)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	claims, err := v.ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", claims.Subject)
	assert.Equal(t, "Claire Martin", claims.Name)
	assert.Equal(t, "freightdesk", claims.Issuer)

	user, err := v.ActingUser(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", user)
}

func TestGenerateTokenRequiresSubject(t *testing.T) {
	v := newTestVerifier(t, "freightdesk")

	_, _, err := v.GenerateToken("", "", time.Minute)
	assert.ErrorIs(t, err, ErrMissingSubject)
}

// TestValidateJWT tests JWT token validation.
func TestValidateJWT(t *testing.T) {
	v := newTestVerifier(t, "freightdesk")
	valid, _, err := v.GenerateToken("user-1", "", 15*time.Minute)
	require.NoError(t, err)

	otherIssuer := newTestVerifier(t, "someone-else")
	foreign, _, err := otherIssuer.GenerateToken("user-1", "", 15*time.Minute)
	require.NoError(t, err)

	expired, _, err := v.GenerateToken("user-1", "", -time.Minute)
	require.NoError(t, err)

	wrongKey, err := NewVerifier("wrong-secret-key-min-32-chars-long-12345", "freightdesk")
	require.NoError(t, err)

	noneSigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &ActorClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1", Issuer: "freightdesk"},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name     string
		verifier *Verifier
		token    string
		wantErr  error
	}{
		{name: "valid token", verifier: v, token: valid},
		{name: "invalid secret", verifier: wrongKey, token: valid, wantErr: jwt.ErrTokenSignatureInvalid},
		{name: "foreign issuer", verifier: v, token: foreign, wantErr: ErrInvalidIssuer},
		{name: "expired", verifier: v, token: expired, wantErr: jwt.ErrTokenExpired},
		{name: "unsigned", verifier: v, token: noneSigned, wantErr: jwt.ErrTokenUnverifiable},
		{name: "empty token", verifier: v, token: "", wantErr: jwt.ErrTokenMalformed},
		{name: "malformed token", verifier: v, token: "invalid.token.here", wantErr: jwt.ErrTokenMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := tt.verifier.ValidateJWT(tt.token)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "user-1", claims.Subject)
		})
	}
}

// TestValidateJWTAnyIssuer tests that an empty issuer accepts any issuer.
func TestValidateJWTAnyIssuer(t *testing.T) {
	minted := newTestVerifier(t, "idp.example")
	token, _, err := minted.GenerateToken("user-7", "", time.Minute)
	require.NoError(t, err)

	user, err := newTestVerifier(t, "").ActingUser(token)
	require.NoError(t, err)
	assert.Equal(t, "user-7", user)
}

func TestValidateJWTMissingSubject(t *testing.T) {
	v := newTestVerifier(t, "freightdesk")
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &ActorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "freightdesk",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = v.ActingUser(token)
	assert.ErrorIs(t, err, ErrMissingSubject)
}
