package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func TestMintVerifyRoundTrip(t *testing.T) {
	token, err := Mint(secret, "room-1", "player-1", time.Hour)
	require.NoError(t, err)

	roomID, playerID, err := Verify(secret, token)
	require.NoError(t, err)
	assert.Equal(t, "room-1", roomID)
	assert.Equal(t, "player-1", playerID)
}

func TestVerify_WrongSecret(t *testing.T) {
	token, err := Mint(secret, "room-1", "player-1", time.Hour)
	require.NoError(t, err)

	_, _, err = Verify([]byte("other-secret"), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Garbage(t *testing.T) {
	_, _, err := Verify(secret, "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Expired(t *testing.T) {
	token, err := Mint(secret, "room-1", "player-1", -time.Minute)
	require.NoError(t, err)

	_, _, err = Verify(secret, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
