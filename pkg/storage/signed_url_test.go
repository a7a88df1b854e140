package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerGenerateAndParse(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate("att-1", "incidents/42/evidence.pdf")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.False(t, expiresAt.IsZero())

	refID, path, parsedExpiry, err := signer.Parse(token, false)
	require.NoError(t, err)
	require.Equal(t, "att-1", refID)
	require.Equal(t, "incidents/42/evidence.pdf", path)
	require.WithinDuration(t, expiresAt, parsedExpiry, time.Second)
}

func TestSignedURLSignerExpired(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Millisecond*10)
	token, _, err := signer.Generate("att-1", "incidents/42/evidence.pdf")
	require.NoError(t, err)
	time.Sleep(time.Millisecond * 20)

	_, _, _, err = signer.Parse(token, false)
	require.Error(t, err)

	refID, path, _, err := signer.Parse(token, true)
	require.NoError(t, err)
	require.Equal(t, "att-1", refID)
	require.Equal(t, "incidents/42/evidence.pdf", path)
}

func TestSignedURLSignerRejectsTamperedToken(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, _, err := signer.Generate("att-1", "incidents/42/evidence.pdf")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	parts[0] = "att-2"
	_, _, _, err = signer.Parse(strings.Join(parts, "."), false)
	require.Error(t, err)

	other := NewSignedURLSigner("other-secret", time.Hour)
	_, _, _, err = other.Parse(token, false)
	require.Error(t, err)
}
