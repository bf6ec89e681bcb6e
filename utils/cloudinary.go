package utils

import (
	"context"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/meinhoongagan/gym-booking/config"
)

const (
	profileFolder    = "profile_pictures"
	profileTransform = "c_thumb,w_200,h_200"
)

// CloudinaryUploader stores profile pictures.
type CloudinaryUploader struct {
	cld    *cloudinary.Cloudinary
	preset string
}

// NewCloudinaryUploader returns nil, nil when Cloudinary is not configured.
func NewCloudinaryUploader(cfg config.CloudinaryConfig) (*CloudinaryUploader, error) {
	if cfg.CloudName == "" {
		return nil, nil
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, err
	}
	return &CloudinaryUploader{cld: cld, preset: cfg.UploadPreset}, nil
}

// Upload stores file as a 200x200 thumbnail and returns the secure URL.
func (u *CloudinaryUploader) Upload(ctx context.Context, file io.Reader, publicID string) (string, error) {
	overwrite := true
	resp, err := u.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		PublicID:       publicID,
		Folder:         profileFolder,
		UploadPreset:   u.preset,
		Transformation: profileTransform,
		Overwrite:      &overwrite,
	})
	if err != nil {
		return "", err
	}
	return resp.SecureURL, nil
}
