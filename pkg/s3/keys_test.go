package s3

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/thera_backend/config"
)

func testS3Config(bucket string) config.S3Config {
	return config.S3Config{Endpoint: "http://localhost:9000", Region: "us-east-1", Bucket: bucket}
}

func TestAvatarKey(t *testing.T) {
	uid := uuid.New()

	key, err := AvatarKey(uid, "image/PNG")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "avatars/"+uid.String()+"/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.True(t, OwnsAvatarKey(uid, key))
	assert.False(t, OwnsAvatarKey(uuid.New(), key))

	_, err = AvatarKey(uid, "application/pdf")
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}

func TestOwnsAvatarKeyRejectsTraversal(t *testing.T) {
	uid := uuid.New()
	assert.False(t, OwnsAvatarKey(uid, "avatars/"+uid.String()+"/../other/x.png"))
}

func TestNewRequiresBucket(t *testing.T) {
	_, err := New(testS3Config(""))
	assert.Error(t, err)
}
