package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"file-drop/internal/models"
)

const sweepTimeout = 2 * time.Minute

// AuditHandler reconciles blobs against records. With ?cleanup=true the
// orphans found are removed.
func (s *Server) AuditHandler(w http.ResponseWriter, r *http.Request) {
	cleanup := false
	if raw := r.URL.Query().Get("cleanup"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeErrorMsg(w, http.StatusBadRequest, "cleanup must be true or false")
			return
		}
		cleanup = v
	}

	ctx, cancel := context.WithTimeout(r.Context(), sweepTimeout)
	defer cancel()

	res, err := s.files.Audit(ctx, cleanup)
	if err != nil {
		s.writeError(w, r, "audit", err)
		return
	}

	if cleanup {
		p := mustPrincipal(r)
		resolved := 0
		for _, o := range res.Orphans {
			if o.Resolved {
				resolved++
			}
		}
		s.recordActivity(r, models.ActivityEntry{
			Action:  models.ActivityCleanup,
			UserID:  &p.UserID,
			Details: map[string]any{"orphans": res.Count, "resolved": resolved},
			Success: resolved == res.Count,
		})
		s.reqLog(r, "audit").WithFields(logrus.Fields{"orphans": res.Count, "resolved": resolved}).Info("cleanup performed")
	}
	writeJSON(w, http.StatusOK, res)
}

// TransferRequest reassigns the named files to another user.
type TransferRequest struct {
	NewUserID string   `json:"newUserId" validate:"required,uuid"`
	Files     []string `json:"files"`
}

func (s *Server) TransferHandler(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, validationMessage(err))
		return
	}
	target, err := uuid.Parse(req.NewUserID)
	if err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "newUserId must be a UUID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), sweepTimeout)
	defer cancel()

	res, err := s.files.TransferOwnership(ctx, target, req.Files)
	if err != nil {
		s.writeError(w, r, "transfer", err)
		return
	}

	p := mustPrincipal(r)
	s.recordActivity(r, models.ActivityEntry{
		Action:   models.ActivityTransfer,
		UserID:   &p.UserID,
		Resource: target.String(),
		Details:  map[string]any{"requested": len(req.Files), "transferred": res.SuccessCount},
		Success:  res.SuccessCount == len(req.Files),
	})
	writeJSON(w, http.StatusOK, res)
}

// InventoryHandler reports every blob name with its record history.
func (s *Server) InventoryHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), sweepTimeout)
	defer cancel()

	inv, err := s.files.Inventory(ctx)
	if err != nil {
		s.writeError(w, r, "inventory", err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}
