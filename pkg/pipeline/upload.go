package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	shared "github.com/mccedddy/EczApp/pkg"
	"github.com/mccedddy/EczApp/pkg/domain/image"
	"github.com/mccedddy/EczApp/pkg/types"
)

// isoMillis matches the ISO 8601 form the mobile client writes.
const isoMillis = "2006-01-02T15:04:05.000Z"

// StoragePath is images/{principalId}/{unixMillis}_image.jpg. Uniqueness relies
// on millisecond granularity.
func StoragePath(principalID string, at time.Time) string {
	return fmt.Sprintf("%s/%s/%d_image.jpg", shared.ImagePrefix, principalID, at.UnixMilli())
}

// ISOTimestamp formats t in UTC with millisecond precision.
func ISOTimestamp(t time.Time) string {
	return t.UTC().Format(isoMillis)
}

type Uploader struct {
	store  shared.BlobStore
	db     shared.Database
	now    func() time.Time
	logger *slog.Logger
}

func NewUploader(store shared.BlobStore, db shared.Database, now func() time.Time, logger *slog.Logger) *Uploader {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Uploader{store: store, db: db, now: now, logger: logger.With("component", "upload")}
}

// Upload stores the image blob and appends its metadata document.
//
// A failed metadata write still returns the record together with a
// non-fatal KindMetadataWriteFailed error: the blob is already durable and
// is left in place.
func (u *Uploader) Upload(ctx context.Context, principalID string, img *image.Captured) (*types.UploadRecord, error) {
	data, err := image.ReadBlob(img)
	if err != nil {
		return nil, &StageError{Kind: KindUploadFailed, Op: "read blob", Err: err}
	}

	path := StoragePath(principalID, u.now())
	u.logger.Info("Uploading image", "path", path, "bytes", len(data))

	if err := u.store.Write(ctx, path, data, image.ContentType); err != nil {
		return nil, &StageError{Kind: KindUploadFailed, Op: "write blob", Err: err}
	}

	url, err := u.store.DownloadURL(ctx, path)
	if err != nil {
		return nil, &StageError{Kind: KindUploadFailed, Op: "download url", Err: err}
	}

	record := &types.UploadRecord{
		OwnerID:     principalID,
		StoragePath: path,
		DownloadURL: url,
		UploadedAt:  u.now(),
	}

	docID, err := u.db.AddImage(ctx, principalID, &types.ImageRecord{
		ImageURL:  url,
		Timestamp: ISOTimestamp(record.UploadedAt),
	})
	if err != nil {
		u.logger.Warn("Image metadata write failed, blob kept", "path", path, "error", err)
		return record, &StageError{Kind: KindMetadataWriteFailed, Op: "add image document", Err: err}
	}

	u.logger.Info("Image uploaded", "path", path, "image_doc_id", docID)
	return record, nil
}
