package queue

import (
	"strings"
	"unicode/utf8"

	"github.com/golobby/cast"
)

const maxUserIDLen = 255

// normalize enforces the wire format's normalization rules on the transport's
// loosely-typed raw request (a map[string]any coming off a GraphQL
// resolver, a JSON body, or similar), producing the strict userId/rank the
// rest of the Coordinator requires.
func normalize(raw map[string]any) (userID string, rank int, err error) {
	rawUserID, hasUserID := raw["userId"]
	rawRank, hasRank := raw["rank"]
	if !hasUserID || !hasRank {
		return "", 0, ErrInvalidParams
	}

	userID, ok := rawUserID.(string)
	if !ok {
		return "", 0, ErrInvalidUserID
	}
	userID = strings.TrimSpace(userID)
	if userID == "" || utf8.RuneCountInString(userID) > maxUserIDLen {
		return "", 0, ErrInvalidUserID
	}

	var castErr error
	rank, castErr = cast.ToIntE(rawRank)
	if castErr != nil || rank < 0 {
		return "", 0, ErrInvalidRank
	}
	if !isWholeNumber(rawRank) {
		return "", 0, ErrInvalidRank
	}

	return userID, rank, nil
}

// isWholeNumber rejects fractional floats (e.g. 12.5) that cast.ToIntE
// would otherwise silently truncate; rank is required to be an
// integer, not merely integer-valued after truncation.
func isWholeNumber(v any) bool {
	switch n := v.(type) {
	case float32:
		return n == float32(int64(n))
	case float64:
		return n == float64(int64(n))
	default:
		return true
	}
}
