package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"file-drop/internal/auth"
	"file-drop/internal/models"
)

// RegisterRequest is the JSON payload for user registration.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50,username"`
	Password string `json:"password" validate:"required,min=8,pwbytes,password"`
	Role     string `json:"role,omitempty"`
}

// RegisterResponse is returned after a successful registration.
type RegisterResponse struct {
	ID       string      `json:"id"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterHandler creates an account. Creating an ADMIN requires an admin
// bearer token.
func (s *Server) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	role := models.RoleUser
	if req.Role != "" {
		parsed, err := models.ParseRole(req.Role)
		if err != nil {
			writeErrorMsg(w, http.StatusBadRequest, err.Error())
			return
		}
		role = parsed
	}

	var actor *Principal
	if role.CanAdminister() {
		p, sent, err := s.bearerPrincipal(r)
		if !sent || err != nil {
			writeErrorMsg(w, http.StatusUnauthorized, "admin token required to create an admin")
			return
		}
		if !p.Role.CanAdminister() {
			writeErrorMsg(w, http.StatusForbidden, "forbidden")
			return
		}
		actor = &p
	}

	u, err := s.accounts.Register(r.Context(), req.Username, req.Password, role)
	if err != nil {
		s.writeError(w, r, "register", err)
		return
	}

	details := map[string]any{"username": u.Username, "role": u.Role}
	if actor != nil {
		details["createdBy"] = actor.UserID.String()
	}
	s.recordActivity(r, models.ActivityEntry{
		Action:   models.ActivityRegister,
		UserID:   &u.ID,
		Resource: u.ID.String(),
		Details:  details,
		Success:  true,
	})
	s.reqLog(r, "register").WithFields(logrus.Fields{"user": u.ID, "role": u.Role}).Info("user registered")

	writeJSON(w, http.StatusCreated, RegisterResponse{ID: u.ID.String(), Username: u.Username, Role: u.Role})
}

// LoginHandler exchanges credentials for a bearer token.
func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	if s.lockout != nil {
		if locked, until := s.lockout.IsLocked(req.Username); locked {
			retry := int(time.Until(until).Seconds()) + 1
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			writeErrorMsg(w, http.StatusTooManyRequests, fmt.Sprintf("account locked, try again in %ds", retry))
			return
		}
	}

	sess, err := s.accounts.Login(r.Context(), req.Username, req.Password)
	if errors.Is(err, auth.ErrBadCredentials) {
		if s.lockout != nil {
			s.lockout.RecordFailure(req.Username)
		}
		s.recordActivity(r, models.ActivityEntry{
			Action:   models.ActivityLogin,
			Resource: req.Username,
			Details:  map[string]any{"ip": getClientIP(r)},
			Success:  false,
		})
		writeErrorMsg(w, http.StatusUnauthorized, "invalid username or password")
		return
	}
	if err != nil {
		s.writeError(w, r, "login", err)
		return
	}
	if s.lockout != nil {
		s.lockout.RecordSuccess(req.Username)
	}

	s.recordActivity(r, models.ActivityEntry{
		Action:   models.ActivityLogin,
		UserID:   &sess.User.ID,
		Resource: sess.User.Username,
		Details:  map[string]any{"ip": getClientIP(r)},
		Success:  true,
	})
	writeJSON(w, http.StatusOK, sess)
}
