package server

import (
	"net/http"

	"file-drop/internal/models"
)

// ListBlobsHandler lists every object in the blob store.
func (s *Server) ListBlobsHandler(w http.ResponseWriter, r *http.Request) {
	list, err := s.files.ListBlobs(r.Context())
	if err != nil {
		s.writeError(w, r, "list_blobs", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// MyFilesHandler lists the caller's active files, newest first.
func (s *Server) MyFilesHandler(w http.ResponseWriter, r *http.Request) {
	p := mustPrincipal(r)
	list, err := s.files.MyFiles(r.Context(), p.UserID)
	if err != nil {
		s.writeError(w, r, "my_files", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type deleteResp struct {
	Message  string `json:"message"`
	BlobName string `json:"blobName"`
}

// DeleteFileHandler soft-deletes the caller's file named in the path.
func (s *Server) DeleteFileHandler(w http.ResponseWriter, r *http.Request) {
	p := mustPrincipal(r)
	name := r.PathValue("fileName")

	rec, err := s.files.Delete(r.Context(), name, p.UserID)
	if err != nil {
		s.writeError(w, r, "delete", err)
		return
	}

	s.recordActivity(r, models.ActivityEntry{
		Action:   models.ActivityDelete,
		UserID:   &p.UserID,
		Resource: rec.BlobName,
		Details:  map[string]any{"recordId": rec.ID.String()},
		Success:  true,
	})
	writeJSON(w, http.StatusOK, deleteResp{Message: "file deleted", BlobName: rec.BlobName})
}
