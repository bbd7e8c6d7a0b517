package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"time"

	"github.com/cofreforte/cofre-backend/internal/repository/storage"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const (
	MaxImageSize   = 2 * 1024 * 1024 // 2MB
	MinImageWidth  = 32
	MinImageHeight = 32
	ThumbnailSize  = 64
	DisplaySize    = 256
	SignedURLTTL   = 15 * time.Minute
)

var (
	ErrImageTooLarge             = errors.New("file too large. Maximum size is 2MB")
	ErrInvalidFormat             = errors.New("invalid format. Supported: JPEG, PNG")
	ErrImageTooSmall             = errors.New("image too small. Minimum 32x32 pixels")
	ErrInvalidImageData          = errors.New("invalid image data")
	ErrImageStorageNotConfigured = errors.New("image storage not configured")
)

// AllowedExtensions maps extensions to content types
var AllowedExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// logoVariants are the square sizes stored for every uploaded logo
var logoVariants = []struct {
	name string
	size int
}{
	{"thumb", ThumbnailSize},
	{"display", DisplaySize},
}

// LogoImage holds the object keys of an uploaded logo
type LogoImage struct {
	ThumbnailKey string `json:"thumbnailKey"`
	DisplayKey   string `json:"displayKey"`
}

// ImageService resizes logos and keeps them in the object store
type ImageService struct {
	store storage.ObjectStore
}

// NewImageService creates a new ImageService. A nil store disables uploads.
func NewImageService(store storage.ObjectStore) *ImageService {
	return &ImageService{store: store}
}

// IsEnabled indicates whether uploads are supported (storage configured).
func (s *ImageService) IsEnabled() bool {
	return s != nil && s.store != nil
}

// ValidateImage validates image format and size
func (s *ImageService) ValidateImage(data []byte, filename string) error {
	_, err := s.validateAndDecode(data, filename)
	return err
}

func (s *ImageService) validateAndDecode(data []byte, filename string) (image.Image, error) {
	if len(data) > MaxImageSize {
		return nil, ErrImageTooLarge
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := AllowedExtensions[ext]; !ok {
		return nil, ErrInvalidFormat
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, ErrInvalidImageData
	}

	bounds := img.Bounds()
	if bounds.Dx() < MinImageWidth || bounds.Dy() < MinImageHeight {
		return nil, ErrImageTooSmall
	}
	return img, nil
}

// ProcessLogo crops the image to a square, renders every variant as PNG and stores it
func (s *ImageService) ProcessLogo(ctx context.Context, workspaceID int32, subscriptionID uuid.UUID, data []byte, filename string) (*LogoImage, error) {
	if !s.IsEnabled() {
		return nil, ErrImageStorageNotConfigured
	}

	img, err := s.validateAndDecode(data, filename)
	if err != nil {
		return nil, err
	}

	keys := make(map[string]string, len(logoVariants))
	for _, variant := range logoVariants {
		processed := imaging.Fill(img, variant.size, variant.size, imaging.Center, imaging.Lanczos)

		var buf bytes.Buffer
		if err := imaging.Encode(&buf, processed, imaging.PNG); err != nil {
			s.removeKeys(ctx, keys)
			return nil, fmt.Errorf("failed to encode image: %w", err)
		}

		key := storage.LogoObjectKey(workspaceID, subscriptionID, variant.name, ".png")
		if err := s.store.Put(ctx, key, buf.Bytes(), "image/png"); err != nil {
			s.removeKeys(ctx, keys)
			return nil, fmt.Errorf("failed to upload %s variant: %w", variant.name, err)
		}
		keys[variant.name] = key
	}

	return &LogoImage{
		ThumbnailKey: keys["thumb"],
		DisplayKey:   keys["display"],
	}, nil
}

// DeleteLogo removes every variant of the logo whose display key is given.
// Keys outside the object store are ignored.
func (s *ImageService) DeleteLogo(ctx context.Context, displayKey string) error {
	if !IsStoredLogo(displayKey) {
		return nil
	}
	if !s.IsEnabled() {
		return ErrImageStorageNotConfigured
	}
	base := strings.TrimSuffix(displayKey, "_display.png")
	for _, variant := range logoVariants {
		// best effort
		_ = s.store.Remove(ctx, base+"_"+variant.name+".png")
	}
	return nil
}

// SignedURL presigns a stored logo key for reading
func (s *ImageService) SignedURL(ctx context.Context, key string) (string, error) {
	if !s.IsEnabled() {
		return "", ErrImageStorageNotConfigured
	}
	return s.store.SignedURL(ctx, key, SignedURLTTL)
}

func (s *ImageService) removeKeys(ctx context.Context, keys map[string]string) {
	for _, key := range keys {
		_ = s.store.Remove(ctx, key)
	}
}

// IsStoredLogo reports whether a LogoURL value is an object store key
func IsStoredLogo(logoURL string) bool {
	return strings.HasPrefix(logoURL, storage.LogoKeyPrefix)
}

// GetContentType returns the content type for a file extension
func GetContentType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ct, ok := AllowedExtensions[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}
