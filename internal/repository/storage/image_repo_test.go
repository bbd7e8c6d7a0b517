package storage

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestLogoObjectKey(t *testing.T) {
	subID := uuid.MustParse("6f1c1d2e-1111-4f5e-9a9b-0c0d0e0f1a2b")

	key := LogoObjectKey(7, subID, "thumb", ".jpg")

	assert.True(t, strings.HasPrefix(key, LogoKeyPrefix+"7/"+subID.String()+"/"))
	assert.True(t, strings.HasSuffix(key, "_thumb.jpg"))
	assert.NotEqual(t, key, LogoObjectKey(7, subID, "thumb", ".jpg"))
}
