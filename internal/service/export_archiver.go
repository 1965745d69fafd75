package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"gstfiling/internal/domain"
	"gstfiling/internal/export"
	"gstfiling/internal/filing"
	"gstfiling/internal/port"
)

// ExportArchiver keeps a copy of every accepted export.
type ExportArchiver interface {
	Archive(ctx context.Context, f *domain.Filing, bundle *filing.ExportBundle) ([]filing.ArchivedObject, error)
}

type objectArchiver struct {
	store         port.ObjectStorage
	bucket        string
	presignExpiry int64
	log           zerolog.Logger
	now           func() time.Time
}

// NewExportArchiver stores export artifacts under
// exports/{gstin}/{period}/{timestamp}/ in bucket. A presigning failure
// is logged and leaves the object's URL empty.
func NewExportArchiver(store port.ObjectStorage, bucket string, presignExpiry int64, log zerolog.Logger) ExportArchiver {
	return &objectArchiver{
		store:         store,
		bucket:        bucket,
		presignExpiry: presignExpiry,
		log:           log,
		now:           time.Now,
	}
}

type artifact struct {
	name        string
	contentType string
	body        []byte
}

func (a *objectArchiver) Archive(ctx context.Context, f *domain.Filing, bundle *filing.ExportBundle) ([]filing.ArchivedObject, error) {
	payload, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding export bundle: %w", err)
	}
	var csvBuf bytes.Buffer
	if err := export.WriteDetailedCSV(&csvBuf, f); err != nil {
		return nil, fmt.Errorf("rendering detailed csv: %w", err)
	}

	prefix := fmt.Sprintf("exports/%s/%s/%s/", export.SanitizeFilename(f.GSTIN), f.Period,
		a.now().UTC().Format("20060102T150405Z"))
	artifacts := []artifact{
		{name: "bundle.json", contentType: "application/json", body: payload},
		{name: export.BuildFilename(f.GSTIN, f.Period, "csv"), contentType: "text/csv", body: csvBuf.Bytes()},
	}

	objects := make([]filing.ArchivedObject, 0, len(artifacts))
	for _, art := range artifacts {
		key := prefix + art.name
		if _, err := a.store.Upload(ctx, port.UploadInput{
			Bucket:      a.bucket,
			Key:         key,
			Body:        bytes.NewReader(art.body),
			ContentType: art.contentType,
		}); err != nil {
			return objects, err
		}
		obj := filing.ArchivedObject{Key: key}
		url, err := a.store.GetPresignedURL(ctx, a.bucket, key, a.presignExpiry)
		if err != nil {
			a.log.Warn().Err(err).Str("bucket", a.bucket).Str("key", key).Msg("presigning archived export failed")
		} else {
			obj.URL = url
		}
		objects = append(objects, obj)
	}
	return objects, nil
}
