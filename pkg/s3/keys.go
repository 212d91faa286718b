package s3

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var ErrUnsupportedImage = errors.New("unsupported image type")

var avatarExt = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// AvatarKey builds avatars/{user_id}/{uuid}.{ext} for an allowed image type.
func AvatarKey(userID uuid.UUID, contentType string) (string, error) {
	ext, ok := avatarExt[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return "", ErrUnsupportedImage
	}
	return fmt.Sprintf("avatars/%s/%s.%s", userID, uuid.New(), ext), nil
}

// OwnsAvatarKey reports whether key lives under the user's avatar prefix.
func OwnsAvatarKey(userID uuid.UUID, key string) bool {
	return strings.HasPrefix(key, "avatars/"+userID.String()+"/") && !strings.Contains(key, "..")
}
