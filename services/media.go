package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// MediaService uploads promotion banner images to Cloudinary.
type MediaService struct {
	cld *cloudinary.Cloudinary
}

// NewMediaService creates a MediaService from a cloudinary:// URL.
func NewMediaService(cloudinaryURL string) (*MediaService, error) {
	if cloudinaryURL == "" {
		return nil, fmt.Errorf("cloudinary URL is required")
	}
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	return &MediaService{cld: cld}, nil
}

// UploadPromotionBanner uploads an image and returns its HTTPS URL.
func (ms *MediaService) UploadPromotionBanner(ctx context.Context, file multipart.File) (string, error) {
	truePtr := true
	falsePtr := false
	result, err := ms.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		PublicID:       fmt.Sprintf("promotions/%d", time.Now().UnixNano()),
		Folder:         "promotions",
		UniqueFilename: &truePtr,
		Overwrite:      &falsePtr,
		ResourceType:   "image",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	url := result.SecureURL
	if url == "" {
		url = result.URL
	}
	return forceHTTPS(url), nil
}

// forceHTTPS ensures Cloudinary URLs use the https scheme
func forceHTTPS(in string) string {
	if in == "" {
		return in
	}
	out := strings.TrimSpace(in)
	out = strings.Replace(out, "http://", "https://", 1)
	return out
}
