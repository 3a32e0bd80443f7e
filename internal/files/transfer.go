package files

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// TransferItem is the outcome for one requested blob name.
type TransferItem struct {
	BlobName string `json:"blobName"`
	Success  bool   `json:"success"`
	Message  string `json:"message"`
}

// TransferResult reports a batch ownership transfer.
type TransferResult struct {
	NewUserID    uuid.UUID      `json:"newUserId"`
	Results      []TransferItem `json:"results"`
	SuccessCount int            `json:"successCount"`
}

// TransferOwnership reassigns the current version of each named file to
// newOwner. Missing files are reported per item and do not stop the batch.
func (s *Service) TransferOwnership(ctx context.Context, newOwner uuid.UUID, blobNames []string) (*TransferResult, error) {
	if len(blobNames) == 0 {
		return nil, fmt.Errorf("%w: no files given", ErrValidation)
	}

	ok, err := s.records.UserExists(ctx, newOwner)
	if err != nil {
		return nil, storeErr("find user", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, newOwner)
	}

	res := &TransferResult{NewUserID: newOwner, Results: make([]TransferItem, 0, len(blobNames))}
	for _, name := range blobNames {
		item := s.transferOne(ctx, newOwner, name)
		if item.Success {
			res.SuccessCount++
		}
		res.Results = append(res.Results, item)
	}

	s.log.WithFields(logrus.Fields{
		"new_owner": newOwner,
		"requested": len(blobNames),
		"succeeded": res.SuccessCount,
	}).Info("ownership transfer complete")
	return res, nil
}

func (s *Service) transferOne(ctx context.Context, newOwner uuid.UUID, name string) TransferItem {
	item := TransferItem{BlobName: name}
	log := s.log.WithFields(logrus.Fields{"blob": name, "new_owner": newOwner})

	record, err := s.records.LatestActiveFile(ctx, name)
	if errors.Is(err, ErrNotFound) {
		item.Message = fmt.Sprintf("no active file named %q", name)
		return item
	}
	if err != nil {
		log.WithError(err).Error("transfer lookup failed")
		item.Message = "lookup failed"
		return item
	}

	if err := s.records.UpdateFileOwner(ctx, record.ID, newOwner); err != nil {
		log.WithError(err).Error("transfer update failed")
		item.Message = "update failed"
		return item
	}

	item.Success = true
	item.Message = fmt.Sprintf("transferred from %s", record.OwnerID)
	return item
}
