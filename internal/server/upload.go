package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"file-drop/internal/files"
	"file-drop/internal/models"
)

const (
	uploadTimeout   = 5 * time.Minute
	multipartMemory = 32 << 20
)

// UploadHandler handles POST /api/storage/upload with a multipart "file"
// field. The blob is written under the sanitized original filename.
func (s *Server) UploadHandler(w http.ResponseWriter, r *http.Request) {
	p := mustPrincipal(r)

	if s.cfg.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeErrorMsg(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		writeErrorMsg(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "no file provided")
		return
	}
	defer func() { _ = file.Close() }()

	ctx, cancel := context.WithTimeout(r.Context(), uploadTimeout)
	defer cancel()

	res, err := s.files.Upload(ctx, files.UploadInput{
		Body:         file,
		Size:         header.Size,
		ContentType:  header.Header.Get("Content-Type"),
		OriginalName: header.Filename,
		OwnerID:      p.UserID,
	})
	if err != nil {
		s.writeError(w, r, "upload", err)
		return
	}

	s.recordActivity(r, models.ActivityEntry{
		Action:   models.ActivityUpload,
		UserID:   &p.UserID,
		Resource: res.BlobName,
		Details:  map[string]any{"size": res.Size, "contentType": res.ContentType, "originalName": header.Filename},
		Success:  true,
	})
	writeJSON(w, http.StatusOK, res)
}
