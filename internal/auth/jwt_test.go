package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	t.Parallel()

	ts := TokenService{Secret: []byte("test-secret"), Issuer: "vinohub", Duration: time.Hour}
	u := &User{ID: "u1", Username: "taster", Email: "taster@example.com", TokenVersion: 3}

	tok, exp, err := ts.Sign(u)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := ts.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "taster", claims.Username)
	assert.Equal(t, "taster@example.com", claims.Email)
	assert.Equal(t, 3, claims.TokenVersion)
	assert.Equal(t, "vinohub", claims.Issuer)
	assert.Equal(t, "u1", claims.Subject)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	ts := TokenService{Secret: []byte("right"), Issuer: "vinohub", Duration: time.Hour}
	tok, _, err := ts.Sign(&User{ID: "u1"})
	require.NoError(t, err)

	other := TokenService{Secret: []byte("wrong"), Issuer: "vinohub", Duration: time.Hour}
	_, err = other.Parse(tok)
	assert.Error(t, err)
}

func TestParseRejectsExpired(t *testing.T) {
	t.Parallel()

	ts := TokenService{Secret: []byte("test-secret"), Issuer: "vinohub", Duration: -time.Minute}
	tok, _, err := ts.Sign(&User{ID: "u1"})
	require.NoError(t, err)

	_, err = ts.Parse(tok)
	assert.Error(t, err)
}

func TestParseRejectsGarbage(t *testing.T) {
	t.Parallel()

	ts := TokenService{Secret: []byte("test-secret")}
	_, err := ts.Parse("not.a.token")
	assert.Error(t, err)
}
