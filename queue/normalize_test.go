package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_Valid(t *testing.T) {
	userID, rank, err := normalize(map[string]any{"userId": "alice", "rank": 42})
	require.NoError(t, err)
	assert.Equal(t, "alice", userID)
	assert.Equal(t, 42, rank)
}

func TestNormalize_CoercesFloatRank(t *testing.T) {
	userID, rank, err := normalize(map[string]any{"userId": "bob", "rank": float64(7)})
	require.NoError(t, err)
	assert.Equal(t, "bob", userID)
	assert.Equal(t, 7, rank)
}

func TestNormalize_NonStringUserIDRejected(t *testing.T) {
	_, _, err := normalize(map[string]any{"userId": 123, "rank": 1})
	assert.ErrorIs(t, err, ErrInvalidUserID)

	_, _, err = normalize(map[string]any{"userId": true, "rank": 1})
	assert.ErrorIs(t, err, ErrInvalidUserID)
}

func TestNormalize_MissingFieldsRejected(t *testing.T) {
	_, _, err := normalize(map[string]any{"userId": "alice"})
	assert.ErrorIs(t, err, ErrInvalidParams)

	_, _, err = normalize(map[string]any{"rank": 1})
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestNormalize_EmptyUserIDRejected(t *testing.T) {
	_, _, err := normalize(map[string]any{"userId": "   ", "rank": 1})
	assert.ErrorIs(t, err, ErrInvalidUserID)
}

func TestNormalize_NegativeRankRejected(t *testing.T) {
	_, _, err := normalize(map[string]any{"userId": "alice", "rank": -1})
	assert.ErrorIs(t, err, ErrInvalidRank)
}

func TestNormalize_FractionalRankRejected(t *testing.T) {
	_, _, err := normalize(map[string]any{"userId": "alice", "rank": 1.5})
	assert.ErrorIs(t, err, ErrInvalidRank)
}

func TestNormalize_OversizedUserIDRejected(t *testing.T) {
	big := make([]byte, maxUserIDLen+1)
	for i := range big {
		big[i] = 'x'
	}
	_, _, err := normalize(map[string]any{"userId": string(big), "rank": 1})
	assert.ErrorIs(t, err, ErrInvalidUserID)
}
