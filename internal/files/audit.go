package files

import (
	"context"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
)

// Orphan locations.
const (
	LocationBlob   = "blob"
	LocationRecord = "record"
)

// Orphan is a key present in one store without a counterpart in the other.
type Orphan struct {
	BlobName string `json:"blobName"`
	Location string `json:"location"`
	Resolved bool   `json:"resolved"`
	Error    string `json:"error,omitempty"`
}

// AuditResult is the outcome of one reconciliation sweep.
type AuditResult struct {
	Orphans          []Orphan  `json:"orphans"`
	Count            int       `json:"count"`
	CleanupPerformed bool      `json:"cleanupPerformed"`
	Timestamp        time.Time `json:"timestamp"`
}

// Audit compares active record keys with live blob keys. With cleanup set,
// blob-side orphans are removed from the blob store and record-side orphans
// are hard-deleted from the record store. A failure on one orphan is
// reported on it and the sweep continues; rerunning picks up what is left.
func (s *Service) Audit(ctx context.Context, cleanup bool) (*AuditResult, error) {
	orphans, err := s.findOrphans(ctx)
	if err != nil {
		return nil, err
	}

	if cleanup {
		for i := range orphans {
			s.resolve(ctx, &orphans[i])
		}
	}

	s.log.WithFields(logrus.Fields{"orphans": len(orphans), "cleanup": cleanup}).Info("audit complete")

	return &AuditResult{
		Orphans:          orphans,
		Count:            len(orphans),
		CleanupPerformed: cleanup,
		Timestamp:        s.now(),
	}, nil
}

func (s *Service) findOrphans(ctx context.Context) ([]Orphan, error) {
	active, err := s.records.ActiveFiles(ctx)
	if err != nil {
		return nil, storeErr("list active records", err)
	}
	blobs, err := s.blobs.List(ctx)
	if err != nil {
		return nil, storeErr("list blobs", err)
	}

	recordKeys := make(map[string]struct{}, len(active))
	for _, f := range active {
		recordKeys[f.BlobName] = struct{}{}
	}
	blobKeys := make(map[string]struct{}, len(blobs))
	for _, b := range blobs {
		blobKeys[b.Name] = struct{}{}
	}

	orphans := []Orphan{}
	for name := range blobKeys {
		if _, ok := recordKeys[name]; !ok {
			orphans = append(orphans, Orphan{BlobName: name, Location: LocationBlob})
		}
	}
	for name := range recordKeys {
		if _, ok := blobKeys[name]; !ok {
			orphans = append(orphans, Orphan{BlobName: name, Location: LocationRecord})
		}
	}

	sort.Slice(orphans, func(i, j int) bool {
		if orphans[i].Location != orphans[j].Location {
			return orphans[i].Location < orphans[j].Location
		}
		return orphans[i].BlobName < orphans[j].BlobName
	})
	return orphans, nil
}

func (s *Service) resolve(ctx context.Context, o *Orphan) {
	log := s.log.WithFields(logrus.Fields{"blob": o.BlobName, "location": o.Location})

	var err error
	switch o.Location {
	case LocationBlob:
		err = s.blobs.Delete(ctx, o.BlobName)
	case LocationRecord:
		var n int64
		n, err = s.records.DeleteFilesByBlobName(ctx, o.BlobName)
		log = log.WithField("rows", n)
	}
	if err != nil {
		o.Error = err.Error()
		log.WithError(err).Error("orphan cleanup failed")
		return
	}
	o.Resolved = true
	log.Info("orphan removed")
}
