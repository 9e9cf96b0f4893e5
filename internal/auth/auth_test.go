package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = strings.Repeat("s", MinSecretLength)

func TestNewManager(t *testing.T) {
	_, err := NewManager("short", time.Hour)
	assert.Error(t, err)

	_, err = NewManager(testSecret, 0)
	assert.Error(t, err)

	m, err := NewManager(testSecret, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, m.Timeout())
}

func TestIssueValidate(t *testing.T) {
	m, err := NewManager(testSecret, time.Hour)
	require.NoError(t, err)

	token, expires, err := m.Issue(42, "admin")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Role)

	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestValidate_Expired(t *testing.T) {
	m, err := NewManager(testSecret, time.Minute)
	require.NoError(t, err)

	issuedAt := time.Now().Add(-time.Hour)
	m.now = func() time.Time { return issuedAt }
	token, _, err := m.Issue(1, "visitor")
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Validate(token)
	assert.True(t, errors.Is(err, ErrInvalidToken), "got %v", err)
}

func TestValidate_WrongSecret(t *testing.T) {
	m1, _ := NewManager(testSecret, time.Hour)
	m2, _ := NewManager(strings.Repeat("x", MinSecretLength), time.Hour)

	token, _, err := m1.Issue(1, "admin")
	require.NoError(t, err)

	_, err = m2.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_RejectsOtherAlgorithms(t *testing.T) {
	m, _ := NewManager(testSecret, time.Hour)

	claims := &Claims{Role: "admin", RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = m.Validate(none)
	assert.ErrorIs(t, err, ErrInvalidToken)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = m.Validate(hs512)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_BadSubject(t *testing.T) {
	m, _ := NewManager(testSecret, time.Hour)

	claims := &Claims{Role: "admin", RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = m.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_Garbage(t *testing.T) {
	m, _ := NewManager(testSecret, time.Hour)
	for _, tok := range []string{"", "abc", "a.b.c"} {
		_, err := m.Validate(tok)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", tok)
	}
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "correct horse"))
	assert.False(t, CheckPassword(hash, "wrong horse"))
	assert.False(t, CheckPassword("not-a-hash", "correct horse"))

	_, err = HashPassword("short")
	assert.ErrorIs(t, err, ErrPasswordTooShort)
	assert.True(t, IsPasswordPolicyError(err))

	_, err = HashPassword(strings.Repeat("p", 73))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}
