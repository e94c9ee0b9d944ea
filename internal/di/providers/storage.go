package providers

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/folioadmin/folio-admin/internal/config"
	"github.com/folioadmin/folio-admin/internal/logger"
	"github.com/folioadmin/folio-admin/internal/media/cloudinary"
	"github.com/folioadmin/folio-admin/internal/media/images"
	"github.com/folioadmin/folio-admin/internal/upload"
)

// uploadsSubdir holds locally stored images under the upload directory.
const uploadsSubdir = "uploads"

// UploaderHandle wraps the upload collaborator with shutdown capability.
// Storage is set only for the local provider, whose files the HTTP server
// serves itself.
type UploaderHandle struct {
	upload.Uploader
	Storage *images.Storage
	close   func()
}

// Shutdown implements do.Shutdownable.
func (h *UploaderHandle) Shutdown() error {
	if h.close != nil {
		h.close()
	}
	return nil
}

// ProvideUploader provides the configured image upload collaborator.
func ProvideUploader(i do.Injector) (*UploaderHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	switch cfg.Upload.Provider {
	case config.UploadLocal:
		storage, err := images.NewStorage(cfg.Upload.LocalDir, uploadsSubdir)
		if err != nil {
			return nil, fmt.Errorf("image storage: %w", err)
		}
		uploader := images.NewLocalUploader(storage, cfg.Upload.PublicBaseURL, cfg.Upload.MaxDimension, log.Logger)
		log.Info("Local image storage initialized", "dir", storage.Dir(), "public_url", cfg.Upload.PublicBaseURL)
		return &UploaderHandle{Uploader: uploader, Storage: storage}, nil

	case config.UploadCloudinary:
		uploader, err := cloudinary.New(cloudinary.Config{
			CloudName:    cfg.Upload.CloudName,
			UploadPreset: cfg.Upload.Preset,
			Folder:       cfg.Upload.Folder,
			Timeout:      cfg.Upload.Timeout,
		}, log.Logger)
		if err != nil {
			return nil, err
		}
		log.Info("Cloudinary uploader initialized", "cloud", cfg.Upload.CloudName, "folder", cfg.Upload.Folder)
		return &UploaderHandle{Uploader: uploader, close: uploader.Close}, nil

	default:
		return nil, fmt.Errorf("unknown upload provider %q", cfg.Upload.Provider)
	}
}
