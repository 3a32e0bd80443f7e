package files

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"file-drop/internal/models"
)

// recordAt builds a row uploaded n minutes after a fixed base time.
func recordAt(name string, owner uuid.UUID, n int, deleted bool) models.StoredFile {
	at := time.Date(2024, 1, 1, 0, n, 0, 0, time.UTC)
	f := models.StoredFile{
		ID:           uuid.New(),
		OriginalName: name,
		BlobName:     name,
		ContentType:  "text/plain",
		SizeBytes:    1,
		UploadedAt:   at,
		OwnerID:      owner,
	}
	if deleted {
		f.MarkDeleted(at.Add(30 * time.Second))
	}
	return f
}

func TestInventory_Statuses(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()
	svc, blobs, records := newTestService(alice, bob)

	blobs.add("active.txt", "x")
	records.add(recordAt("active.txt", alice, 1, true))
	records.add(recordAt("active.txt", bob, 2, false))

	blobs.add("marked.txt", "x")
	records.add(recordAt("marked.txt", alice, 3, true))

	blobs.add("orphan.bin", "x")

	records.add(recordAt("missing.txt", alice, 4, false))

	records.add(recordAt("resolved.txt", alice, 5, true))

	inv, err := svc.Inventory(context.Background())
	require.NoError(t, err)

	byName := map[string]InventoryItem{}
	for _, it := range inv.Items {
		byName[it.BlobName] = it
	}
	require.Len(t, byName, 4)
	assert.NotContains(t, byName, "resolved.txt")

	active := byName["active.txt"]
	assert.Equal(t, StatusActive, active.Status)
	assert.Equal(t, 2, active.VersionCount)
	assert.True(t, active.HasDeletedVersions)
	require.NotNil(t, active.OwnerID)
	assert.Equal(t, bob, *active.OwnerID, "owner comes from the newest version")
	require.NotNil(t, active.Blob)
	assert.Equal(t, "active.txt", active.Blob.Name)

	assert.Equal(t, StatusMarkedAsDeleted, byName["marked.txt"].Status)

	orphan := byName["orphan.bin"]
	assert.Equal(t, StatusOrphanedInStorage, orphan.Status)
	assert.Zero(t, orphan.VersionCount)
	assert.Nil(t, orphan.OwnerID)
	assert.NotNil(t, orphan.Versions)

	missing := byName["missing.txt"]
	assert.Equal(t, StatusMissingFromStorage, missing.Status)
	assert.Nil(t, missing.Blob)
	assert.False(t, missing.HasDeletedVersions)

	assert.Equal(t, map[InventoryStatus]int{
		StatusActive:             1,
		StatusMarkedAsDeleted:    1,
		StatusOrphanedInStorage:  1,
		StatusMissingFromStorage: 1,
	}, inv.Summary)

	names := make([]string, 0, len(inv.Items))
	for _, it := range inv.Items {
		names = append(names, it.BlobName)
	}
	assert.Equal(t, []string{"active.txt", "marked.txt", "missing.txt", "orphan.bin"}, names)
}

func TestInventory_MissingUsesNewestVersion(t *testing.T) {
	owner := uuid.New()
	svc, _, records := newTestService(owner)

	// older version deleted, newer still active, blob gone
	records.add(recordAt("flip.txt", owner, 1, true))
	records.add(recordAt("flip.txt", owner, 2, false))
	// older active, newer deleted, blob gone: resolved
	records.add(recordAt("flop.txt", owner, 3, false))
	records.add(recordAt("flop.txt", owner, 4, true))

	inv, err := svc.Inventory(context.Background())
	require.NoError(t, err)
	require.Len(t, inv.Items, 1)
	assert.Equal(t, "flip.txt", inv.Items[0].BlobName)
	assert.Equal(t, StatusMissingFromStorage, inv.Items[0].Status)
	assert.True(t, inv.Items[0].HasDeletedVersions)
}
