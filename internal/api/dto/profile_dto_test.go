package dto

import (
	"Hearth/internal/model"
	"testing"

	"github.com/jinzhu/copier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestToUserSummary(t *testing.T) {
	u := &model.User{
		ID:             primitive.NewObjectID(),
		ExternalID:     "ext_alice",
		FirstName:      "Alice",
		LastName:       "Liddell",
		Username:       "alice",
		ProfilePicture: "https://cdn.example.com/avatars/alice.webp",
		Following:      []primitive.ObjectID{primitive.NewObjectID()},
	}

	summary, err := ToUserSummary(u)

	require.NoError(t, err)
	assert.Equal(t, &UserSummaryDTO{
		ID:             u.ID,
		Username:       "alice",
		FirstName:      "Alice",
		LastName:       "Liddell",
		ProfilePicture: u.ProfilePicture,
	}, summary)
}

func TestToUserSummaryNilUser(t *testing.T) {
	summary, err := ToUserSummary(nil)

	assert.ErrorIs(t, err, copier.ErrInvalidCopyFrom)
	assert.Nil(t, summary)
}
