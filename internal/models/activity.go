package models

import (
	"time"

	"github.com/google/uuid"
)

// ActivityAction names an auditable event.
type ActivityAction string

const (
	ActivityUpload   ActivityAction = "file_upload"
	ActivityDelete   ActivityAction = "file_delete"
	ActivityTransfer ActivityAction = "file_transfer"
	ActivityCleanup  ActivityAction = "cleanup"
	ActivityRegister ActivityAction = "user_create"
	ActivityLogin    ActivityAction = "login"
)

// ActivityEntry is one append-only row of the activity log.
type ActivityEntry struct {
	ID       uuid.UUID      `json:"id"`
	At       time.Time      `json:"at"`
	Action   ActivityAction `json:"action"`
	UserID   *uuid.UUID     `json:"userId,omitempty"`
	Resource string         `json:"resource,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
	Success  bool           `json:"success"`
}
