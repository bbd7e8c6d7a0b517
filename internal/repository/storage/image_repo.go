package storage

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
)

// ObjectStore stores uploaded logo variants. Keys are returned instead of URLs; readers
// ask for a signed URL when rendering.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Remove(ctx context.Context, key string) error
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// LogoKeyPrefix marks LogoURL values that point into the object store
const LogoKeyPrefix = "logos/"

// LogoObjectKey builds a unique key for one variant of a subscription logo
func LogoObjectKey(workspaceID int32, subscriptionID uuid.UUID, variant, ext string) string {
	name := fmt.Sprintf("%s_%s%s", uuid.New().String(), variant, ext)
	return path.Join("logos", fmt.Sprintf("%d", workspaceID), subscriptionID.String(), name)
}
