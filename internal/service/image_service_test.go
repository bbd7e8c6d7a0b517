package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/cofreforte/cofre-backend/internal/testutil"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// createTestImage creates a test image of the specified size and format
func createTestImage(width, height int, format string) ([]byte, string) {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 229, G: 9, B: 20, A: 255})
		}
	}

	var buf bytes.Buffer
	if format == "png" {
		png.Encode(&buf, img)
		return buf.Bytes(), "logo.png"
	}
	jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85})
	return buf.Bytes(), "logo.jpg"
}

func TestValidateImage(t *testing.T) {
	svc := NewImageService(nil)
	validJPEG, jpgName := createTestImage(100, 100, "jpeg")
	validPNG, pngName := createTestImage(100, 60, "png")
	small, smallName := createTestImage(16, 16, "png")

	tests := []struct {
		name     string
		data     []byte
		filename string
		want     error
	}{
		{"valid jpeg", validJPEG, jpgName, nil},
		{"valid png", validPNG, pngName, nil},
		{"too large", make([]byte, MaxImageSize+1), "big.png", ErrImageTooLarge},
		{"unsupported extension", validJPEG, "logo.gif", ErrInvalidFormat},
		{"too small", small, smallName, ErrImageTooSmall},
		{"not an image", []byte("not an image"), "logo.png", ErrInvalidImageData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := svc.ValidateImage(tt.data, tt.filename); err != tt.want {
				t.Errorf("ValidateImage() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestProcessLogo_StoresSquareVariants(t *testing.T) {
	store := testutil.NewMockObjectStore()
	svc := NewImageService(store)
	subID := uuid.New()
	data, filename := createTestImage(400, 200, "png")

	logo, err := svc.ProcessLogo(context.Background(), 4, subID, data, filename)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(store.Objects) != 2 {
		t.Fatalf("expected 2 stored variants, got %d", len(store.Objects))
	}
	if !strings.HasSuffix(logo.DisplayKey, "_display.png") || !strings.HasSuffix(logo.ThumbnailKey, "_thumb.png") {
		t.Errorf("unexpected keys %q %q", logo.DisplayKey, logo.ThumbnailKey)
	}
	if !strings.HasPrefix(logo.DisplayKey, "logos/4/"+subID.String()+"/") {
		t.Errorf("display key not scoped to workspace and subscription: %s", logo.DisplayKey)
	}

	img, err := imaging.Decode(bytes.NewReader(store.Objects[logo.DisplayKey]))
	if err != nil {
		t.Fatalf("stored display variant is not an image: %v", err)
	}
	if img.Bounds().Dx() != DisplaySize || img.Bounds().Dy() != DisplaySize {
		t.Errorf("display variant is %dx%d, want %dx%d", img.Bounds().Dx(), img.Bounds().Dy(), DisplaySize, DisplaySize)
	}
}

func TestProcessLogo_NotConfigured(t *testing.T) {
	svc := NewImageService(nil)
	data, filename := createTestImage(100, 100, "png")
	if _, err := svc.ProcessLogo(context.Background(), 1, uuid.New(), data, filename); err != ErrImageStorageNotConfigured {
		t.Errorf("expected ErrImageStorageNotConfigured, got %v", err)
	}
}

func TestProcessLogo_UploadFailure(t *testing.T) {
	store := testutil.NewMockObjectStore()
	store.PutErr = errors.New("bucket unavailable")
	svc := NewImageService(store)
	data, filename := createTestImage(100, 100, "jpeg")

	_, err := svc.ProcessLogo(context.Background(), 1, uuid.New(), data, filename)
	if err == nil || !errors.Is(err, store.PutErr) {
		t.Errorf("expected wrapped upload error, got %v", err)
	}
	if len(store.Objects) != 0 {
		t.Errorf("expected nothing stored, got %d objects", len(store.Objects))
	}
}

func TestDeleteLogo_RemovesAllVariants(t *testing.T) {
	store := testutil.NewMockObjectStore()
	svc := NewImageService(store)
	data, filename := createTestImage(100, 100, "png")
	logo, err := svc.ProcessLogo(context.Background(), 1, uuid.New(), data, filename)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := svc.DeleteLogo(context.Background(), logo.DisplayKey); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(store.Objects) != 0 {
		t.Errorf("expected all variants removed, %d left", len(store.Objects))
	}

	// static paths are not ours to delete
	if err := NewImageService(nil).DeleteLogo(context.Background(), "/logos/netflix.svg"); err != nil {
		t.Errorf("expected static logo to be ignored, got %v", err)
	}
}

func TestGetContentType(t *testing.T) {
	tests := []struct {
		filename string
		expected string
	}{
		{"test.jpg", "image/jpeg"},
		{"test.JPEG", "image/jpeg"},
		{"test.png", "image/png"},
		{"test.gif", "application/octet-stream"},
	}
	for _, tt := range tests {
		if ct := GetContentType(tt.filename); ct != tt.expected {
			t.Errorf("GetContentType(%s) = %s, expected %s", tt.filename, ct, tt.expected)
		}
	}
}
