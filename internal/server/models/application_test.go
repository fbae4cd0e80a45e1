package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/placementtracker/internal/common"
)

func TestValidateTransition_Table(t *testing.T) {
	for _, from := range Statuses {
		for _, to := range Statuses {
			err := ValidateTransition(from, to)
			if from == StatusWishlist && to == StatusOffer {
				require.Error(t, err, "%s -> %s", from, to)
				assert.True(t, errors.Is(err, common.ErrorValidation))

				var ve *common.ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, MsgWishlistToOffer, ve.Message)
				assert.Equal(t, MsgWishlistToOffer, ve.Fields["status"])
				continue
			}
			assert.NoError(t, err, "%s -> %s", from, to)
		}
	}
}

func TestStatus_ValidAndDisplayName(t *testing.T) {
	assert.True(t, StatusOA.Valid())
	assert.Equal(t, "Online Assessment", StatusOA.DisplayName())
	assert.Equal(t, "Wishlist", StatusWishlist.DisplayName())

	assert.False(t, Status("GHOSTED").Valid())
	assert.Equal(t, "GHOSTED", Status("GHOSTED").DisplayName())
	assert.False(t, Status("").Valid())
}

func TestRefreshToken_Usable(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	live := RefreshToken{ExpiresAt: now.Add(time.Minute)}
	assert.True(t, live.Usable(now))

	revoked := RefreshToken{ExpiresAt: now.Add(time.Minute), IsRevoked: true}
	assert.False(t, revoked.Usable(now))

	atExpiry := RefreshToken{ExpiresAt: now}
	assert.True(t, atExpiry.Expired(now))
	assert.False(t, atExpiry.Usable(now))
}
