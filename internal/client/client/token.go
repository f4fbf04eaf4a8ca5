package client

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/draped/internal/common"
)

// TokenExpiry reads the exp claim of an access token without verifying the
// signature. The client never holds the signing key; the value is only used
// for display and logging.
func TokenExpiry(token string) (time.Time, error) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, fmt.Errorf("%w: no exp claim", common.ErrInvalidToken)
	}
	return claims.ExpiresAt.Time, nil
}
