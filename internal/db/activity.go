package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"file-drop/internal/models"
)

// Activity appends to and reads from the activity log.
type Activity struct {
	db  *sql.DB
	now func() time.Time
}

func NewActivity(db *sql.DB) *Activity {
	return &Activity{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Record inserts e, filling in the id and timestamp when unset.
func (a *Activity) Record(ctx context.Context, e models.ActivityEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.At.IsZero() {
		e.At = a.now()
	}

	var details []byte
	if len(e.Details) > 0 {
		var err error
		if details, err = json.Marshal(e.Details); err != nil {
			return err
		}
	}

	_, err := a.db.ExecContext(ctx, `
		INSERT INTO activity_log (id, at, action, user_id, resource, details, success)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.At, string(e.Action), e.UserID, nullString(e.Resource), details, e.Success)
	return err
}

// Activity page sizes.
const (
	DefaultActivityLimit = 100
	MaxActivityLimit     = 500
)

// Recent returns up to limit entries, newest first, optionally filtered by
// action. A non-positive limit means the default; larger limits are capped.
func (a *Activity) Recent(ctx context.Context, action models.ActivityAction, limit int) ([]models.ActivityEntry, error) {
	switch {
	case limit <= 0:
		limit = DefaultActivityLimit
	case limit > MaxActivityLimit:
		limit = MaxActivityLimit
	}
	rows, err := a.db.QueryContext(ctx, `
		SELECT id, at, action, user_id, resource, details, success
		FROM activity_log
		WHERE ($1 = '' OR action = $1)
		ORDER BY at DESC
		LIMIT $2`, string(action), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.ActivityEntry{}
	for rows.Next() {
		var (
			e        models.ActivityEntry
			act      string
			userID   uuid.NullUUID
			resource sql.NullString
			details  []byte
		)
		if err := rows.Scan(&e.ID, &e.At, &act, &userID, &resource, &details, &e.Success); err != nil {
			return nil, err
		}
		e.Action = models.ActivityAction(act)
		if userID.Valid {
			id := userID.UUID
			e.UserID = &id
		}
		e.Resource = resource.String
		if len(details) > 0 {
			if err := json.Unmarshal(details, &e.Details); err != nil {
				return nil, err
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
