package images

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	_ "golang.org/x/image/webp" // Register WebP decoder

	"github.com/folioadmin/folio-admin/internal/upload"
	"github.com/folioadmin/folio-admin/internal/util"
)

// DefaultMaxDimension bounds the longest side of stored images.
const DefaultMaxDimension = 1600

// LocalUploader decodes, normalizes and stores uploaded images on disk.
// Every image is re-encoded as JPEG under its slugged original name plus a
// random suffix.
type LocalUploader struct {
	storage    *Storage
	publicBase string
	maxDim     int
	quality    int
	logger     *slog.Logger
}

// NewLocalUploader returns an uploader writing to storage. References are
// publicBase joined with the stored file name.
func NewLocalUploader(storage *Storage, publicBase string, maxDim int, logger *slog.Logger) *LocalUploader {
	if maxDim <= 0 {
		maxDim = DefaultMaxDimension
	}
	return &LocalUploader{
		storage:    storage,
		publicBase: strings.TrimRight(publicBase, "/"),
		maxDim:     maxDim,
		quality:    90,
		logger:     logger,
	}
}

// Upload implements upload.Uploader.
func (u *LocalUploader) Upload(ctx context.Context, f upload.File) (upload.Result, error) {
	if err := ctx.Err(); err != nil {
		return upload.Result{}, err
	}
	if f.ContentType != "" && !strings.HasPrefix(f.ContentType, "image/") {
		return upload.Result{}, fmt.Errorf("unsupported content type %q", f.ContentType)
	}

	img, err := imaging.Decode(bytes.NewReader(f.Data), imaging.AutoOrientation(true))
	if err != nil {
		return upload.Result{}, fmt.Errorf("decode image: %w", err)
	}

	b := img.Bounds()
	if b.Dx() > u.maxDim || b.Dy() > u.maxDim {
		img = imaging.Fit(img, u.maxDim, u.maxDim, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(u.quality)); err != nil {
		return upload.Result{}, fmt.Errorf("encode image: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return upload.Result{}, err
	}

	name := util.FileStem(f.Name, "image") + "-" + uuid.NewString()[:8] + ".jpg"
	if err := u.storage.Save(name, buf.Bytes()); err != nil {
		return upload.Result{}, err
	}

	hash, err := ComputeBlurHash(img)
	if err != nil {
		u.logger.Warn("blurhash failed", "name", name, "error", err)
	}

	u.logger.Debug("image stored",
		"name", name,
		"original", f.Name,
		"width", img.Bounds().Dx(),
		"height", img.Bounds().Dy(),
		"size", buf.Len(),
	)

	return upload.Result{
		Reference: u.publicBase + "/" + name,
		BlurHash:  hash,
	}, nil
}
