package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"spiritual_growth_service/internal/history/repository"
	errprocess "spiritual_growth_service/pkg/err"
	"spiritual_growth_service/pkg/logger"

	"go.uber.org/zap"
)

// ObjectStore cold storage for archived messages
type ObjectStore interface {
	PutObject(ctx context.Context, objectName string, data []byte, contentType string) error
}

// ArchiveUseCase exports messages older than a cutoff to object storage and
// prunes them from the live collection.
type ArchiveUseCase struct {
	msgRepo repository.MessageRepository
	store   ObjectStore
}

// NewArchiveUseCase create ArchiveUseCase
func NewArchiveUseCase(msgRepo repository.MessageRepository, store ObjectStore) *ArchiveUseCase {
	return &ArchiveUseCase{
		msgRepo: msgRepo,
		store:   store,
	}
}

// Execute archives everything created before the cutoff. The export is
// written before the prune; a failure between the two leaves duplicates in
// cold storage, never a gap.
func (uc *ArchiveUseCase) Execute(ctx context.Context, cutoff time.Time) (int64, error) {
	messages, err := uc.msgRepo.FindOlderThan(ctx, cutoff.Unix())
	if err != nil {
		return 0, err
	}
	if len(messages) == 0 {
		return 0, nil
	}

	data, err := json.Marshal(messages)
	if err != nil {
		return 0, errprocess.Set(fmt.Sprintf("marshal archive batch: %v", err))
	}

	objectName := fmt.Sprintf("archive/%s.json", cutoff.Format("2006-01-02"))
	if err := uc.store.PutObject(ctx, objectName, data, "application/json"); err != nil {
		return 0, errprocess.Set(fmt.Sprintf("upload archive object [%s]: %v", objectName, err))
	}

	pruned, err := uc.msgRepo.DeleteOlderThan(ctx, cutoff.Unix())
	if err != nil {
		return 0, err
	}

	logger.Log.Info("message archive complete",
		zap.String("object", objectName),
		zap.Int64("pruned", pruned),
	)
	return pruned, nil
}

// RunDaily executes the archive once a day until ctx is cancelled.
func (uc *ArchiveUseCase) RunDaily(ctx context.Context, keepDays int) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().AddDate(0, 0, -keepDays)
			if _, err := uc.Execute(ctx, cutoff); err != nil {
				logger.Log.Errorf("message archive failed:", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
