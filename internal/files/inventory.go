package files

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"file-drop/internal/models"
)

// InventoryStatus classifies a blob name across both stores.
type InventoryStatus string

const (
	StatusActive             InventoryStatus = "Active"
	StatusMarkedAsDeleted    InventoryStatus = "MarkedAsDeleted"
	StatusMissingFromStorage InventoryStatus = "MissingFromStorage"
	StatusOrphanedInStorage  InventoryStatus = "OrphanedInStorage"
)

// InventoryItem merges one blob name's live object with its record history.
type InventoryItem struct {
	BlobName           string              `json:"blobName"`
	Status             InventoryStatus     `json:"status"`
	Blob               *models.BlobInfo    `json:"blob,omitempty"`
	OwnerID            *uuid.UUID          `json:"ownerId,omitempty"`
	VersionCount       int                 `json:"versionCount"`
	HasDeletedVersions bool                `json:"hasDeletedVersions"`
	Versions           []models.StoredFile `json:"versions"`
}

// Inventory is the admin view over both stores.
type Inventory struct {
	Items       []InventoryItem         `json:"items"`
	Summary     map[InventoryStatus]int `json:"summary"`
	GeneratedAt time.Time               `json:"generatedAt"`
}

// Inventory lists every blob with its record history plus record-only names
// whose newest version is still active. Record-only names whose newest
// version is soft-deleted are already resolved and left out.
func (s *Service) Inventory(ctx context.Context) (*Inventory, error) {
	blobs, err := s.blobs.List(ctx)
	if err != nil {
		return nil, storeErr("list blobs", err)
	}
	records, err := s.records.AllFiles(ctx)
	if err != nil {
		return nil, storeErr("list records", err)
	}

	history := groupVersions(records)
	inv := &Inventory{
		Items:       []InventoryItem{},
		Summary:     map[InventoryStatus]int{},
		GeneratedAt: s.now(),
	}

	seen := make(map[string]struct{}, len(blobs))
	for i := range blobs {
		b := blobs[i]
		seen[b.Name] = struct{}{}
		item := newInventoryItem(b.Name, history[b.Name])
		item.Blob = &b
		switch {
		case item.VersionCount == 0:
			item.Status = StatusOrphanedInStorage
		case item.Versions[0].IsDeleted:
			item.Status = StatusMarkedAsDeleted
		default:
			item.Status = StatusActive
		}
		inv.add(item)
	}

	for name, versions := range history {
		if _, ok := seen[name]; ok {
			continue
		}
		if versions[0].IsDeleted {
			continue
		}
		item := newInventoryItem(name, versions)
		item.Status = StatusMissingFromStorage
		inv.add(item)
	}

	sort.Slice(inv.Items, func(i, j int) bool { return inv.Items[i].BlobName < inv.Items[j].BlobName })
	return inv, nil
}

func (inv *Inventory) add(item InventoryItem) {
	inv.Items = append(inv.Items, item)
	inv.Summary[item.Status]++
}

func newInventoryItem(name string, versions []models.StoredFile) InventoryItem {
	item := InventoryItem{
		BlobName:     name,
		VersionCount: len(versions),
		Versions:     versions,
	}
	if item.Versions == nil {
		item.Versions = []models.StoredFile{}
	}
	for _, v := range versions {
		if v.IsDeleted {
			item.HasDeletedVersions = true
			break
		}
	}
	if len(versions) > 0 {
		owner := versions[0].OwnerID
		item.OwnerID = &owner
	}
	return item
}

// groupVersions buckets records by blob name, newest upload first.
func groupVersions(records []models.StoredFile) map[string][]models.StoredFile {
	out := make(map[string][]models.StoredFile)
	for _, r := range records {
		out[r.BlobName] = append(out[r.BlobName], r)
	}
	for _, versions := range out {
		sort.SliceStable(versions, func(i, j int) bool {
			return versions[i].UploadedAt.After(versions[j].UploadedAt)
		})
	}
	return out
}
