// Package adapters contains thin glue types that connect modules without
// creating direct dependencies between them.
package adapters

import (
	"context"
	"fmt"
	"io"
	"strings"

	"barberia_backend/internal/adapters/storage"
)

// AvatarStorage uploads profile photos to object storage and returns the
// public URL to store as fotoPerfil.
type AvatarStorage struct {
	svc           storage.StorageService
	bucket        string
	publicBaseURL string
}

func NewAvatarStorage(svc storage.StorageService, bucket, publicBaseURL string) *AvatarStorage {
	return &AvatarStorage{
		svc:           svc,
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// UploadAvatar validates and stores the image, returning its public URL.
func (a *AvatarStorage) UploadAvatar(ctx context.Context, folder, fileName, contentType string, reader io.Reader, size int64) (string, error) {
	if err := a.svc.ValidateContentType(contentType); err != nil {
		return "", err
	}
	if err := a.svc.ValidateFileSize(size); err != nil {
		return "", err
	}

	fileKey, err := a.svc.UploadFile(ctx, a.bucket, folder, fileName, contentType, reader, size)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s/%s/%s", a.publicBaseURL, a.bucket, fileKey), nil
}
