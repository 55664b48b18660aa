package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse(t *testing.T) {
	secret := []byte("s3cret")
	token, err := GenerateToken("laptop", secret, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(token, secret)
	require.NoError(t, err)
	require.Equal(t, "laptop", claims.Client)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken("laptop", []byte("one"), time.Hour)
	require.NoError(t, err)
	_, err = ParseToken(token, []byte("two"))
	require.Error(t, err)
}

func TestParseRejectsExpired(t *testing.T) {
	secret := []byte("s3cret")
	token, err := GenerateToken("laptop", secret, -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(token, secret)
	require.Error(t, err)
}
