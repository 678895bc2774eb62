package mongostore

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/huiapp/huiauth/store"
)

func TestUserPipelineJoinsRoleByName(t *testing.T) {
	filter := bson.D{{Key: "email", Value: "user@example.com"}}
	p := userPipeline(filter)

	require.Len(t, p, 3)
	assert.Equal(t, "$match", p[0][0].Key)
	assert.Equal(t, filter, p[0][0].Value)
	assert.Equal(t, "$limit", p[1][0].Key)

	lookup, ok := p[2][0].Value.(bson.D)
	require.True(t, ok)
	assert.Equal(t, "$lookup", p[2][0].Key)
	assert.Equal(t, bson.D{
		{Key: "from", Value: RolesCollection},
		{Key: "localField", Value: "role"},
		{Key: "foreignField", Value: "name"},
		{Key: "as", Value: "role_info"},
	}, lookup)
}

func TestEmailOrPhoneFilterSkipsEmptyFields(t *testing.T) {
	f := emailOrPhoneFilter("", "+84901234567")
	or, ok := f[0].Value.(bson.A)
	require.True(t, ok)
	require.Len(t, or, 1)
	assert.Equal(t, bson.D{{Key: "phone", Value: "+84901234567"}}, or[0])

	f = emailOrPhoneFilter("a@b.vn", "+84901234567")
	or = f[0].Value.(bson.A)
	assert.Len(t, or, 2)
}

func TestExpiredFilterIsInclusive(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	f := expiredFilter(now)
	assert.Equal(t, "expiresAt", f[0].Key)
	assert.Equal(t, bson.D{{Key: "$lte", Value: now}}, f[0].Value)
}

func TestUserDocTakesPermissionsFromJoin(t *testing.T) {
	doc := userDoc{
		ID:       bson.NewObjectID(),
		Email:    "user@example.com",
		Role:     "hui_vien",
		RoleInfo: []roleDoc{{Name: "hui_vien", Permissions: []string{"group:view"}}},
	}
	u := doc.toUser()
	assert.Equal(t, doc.ID.Hex(), u.ID)
	assert.Equal(t, []string{"group:view"}, u.Permissions)

	doc.RoleInfo = nil
	assert.Equal(t, []string{}, doc.toUser().Permissions)
}

func TestClassify(t *testing.T) {
	assert.NoError(t, classify("op", nil))
	assert.ErrorIs(t, classify("op", mongo.ErrNoDocuments), store.ErrNotFound)

	err := classify("op", errors.New("connection refused"))
	assert.ErrorIs(t, err, store.ErrUnavailable)

	dup := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key"}}}
	assert.ErrorIs(t, classify("op", dup), store.ErrDuplicateKey)
}
