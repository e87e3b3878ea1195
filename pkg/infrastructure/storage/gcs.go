package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

// DownloadTokenKey is the object metadata key Firebase Storage reads download tokens from.
const DownloadTokenKey = "firebaseStorageDownloadTokens"

const downloadHost = "https://firebasestorage.googleapis.com"

// StorageAdapter provides blob storage operations on the Firebase default bucket
type StorageAdapter struct {
	Bucket     *storage.BucketHandle
	BucketName string
}

// Write stores data and attaches a fresh download token so the object is
// retrievable through a Firebase download URL.
func (a *StorageAdapter) Write(ctx context.Context, objectName string, data []byte, contentType string) error {
	wc := a.Bucket.Object(objectName).NewWriter(ctx)
	wc.ContentType = contentType
	wc.Metadata = map[string]string{DownloadTokenKey: uuid.NewString()}
	if _, err := wc.Write(data); err != nil {
		return err
	}
	return wc.Close()
}

// DownloadURL returns the durable, token-bearing URL for objectName, minting a
// token if the object was written without one.
func (a *StorageAdapter) DownloadURL(ctx context.Context, objectName string) (string, error) {
	obj := a.Bucket.Object(objectName)
	attrs, err := obj.Attrs(ctx)
	if err != nil {
		return "", fmt.Errorf("read attrs: %w", err)
	}

	token := firstToken(attrs.Metadata[DownloadTokenKey])
	if token == "" {
		token = uuid.NewString()
		_, err := obj.Update(ctx, storage.ObjectAttrsToUpdate{
			Metadata: map[string]string{DownloadTokenKey: token},
		})
		if err != nil {
			return "", fmt.Errorf("set download token: %w", err)
		}
	}

	return BuildDownloadURL(a.BucketName, objectName, token), nil
}

// BuildDownloadURL formats the Firebase Storage download URL for an object.
func BuildDownloadURL(bucket, objectName, token string) string {
	return fmt.Sprintf("%s/v0/b/%s/o/%s?alt=media&token=%s",
		downloadHost, bucket, url.PathEscape(objectName), url.QueryEscape(token))
}

// Firebase stores multiple tokens comma separated.
func firstToken(tokens string) string {
	if tokens == "" {
		return ""
	}
	return strings.TrimSpace(strings.Split(tokens, ",")[0])
}
