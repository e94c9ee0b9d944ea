package api

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/folioadmin/folio-admin/internal/errors"
	"github.com/folioadmin/folio-admin/internal/http/response"
	"github.com/folioadmin/folio-admin/internal/upload"
)

// UploadAcceptedResponse identifies the upload that was started.
type UploadAcceptedResponse struct {
	Token string `json:"token"`
}

// handleUploadImage starts an image upload for the open session of a kind.
// The upload settles in the background; clients follow it through the
// session snapshot or the upload.settled event.
func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	ctrl, err := s.controller(chi.URLParam(r, "kind"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.uploadMax+(1<<20))
	if err := r.ParseMultipartForm(s.uploadMax); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.RequestTooLarge(w, "File too large", s.logger)
			return
		}
		response.BadRequest(w, "Failed to parse form data", s.logger)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "No file uploaded. Use 'file' field in multipart form", s.logger)
		return
	}
	defer file.Close()

	if header.Size > s.uploadMax {
		response.RequestTooLarge(w, "File too large", s.logger)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		s.logger.Error("failed to read uploaded file", "error", err)
		response.BadRequest(w, "Failed to read uploaded file", s.logger)
		return
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		response.BadRequest(w, "Invalid image format. Supported formats: JPEG, PNG, WebP, GIF", s.logger)
		return
	}

	token, err := ctrl.UploadImage(r.Context(), upload.File{
		Name:        header.Filename,
		ContentType: contentType,
		Data:        data,
	})
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	s.logger.Info("image upload started",
		"kind", ctrl.Schema().Kind,
		"filename", header.Filename,
		"size", len(data),
	)
	response.Accepted(w, UploadAcceptedResponse{Token: token}, s.logger)
}
