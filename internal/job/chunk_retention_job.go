package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type DocumentPurger interface {
	PurgeExpired(ctx context.Context, maxAge time.Duration, batch int) (int, error)
}

// ChunkRetentionJob deletes documents whose chunks outlived the retention window.
type ChunkRetentionJob struct {
	purger DocumentPurger
	maxAge time.Duration
	batch  int
}

func NewChunkRetentionJob(purger DocumentPurger, maxAge time.Duration, batch int) *ChunkRetentionJob {
	if batch <= 0 {
		batch = 100
	}
	return &ChunkRetentionJob{purger: purger, maxAge: maxAge, batch: batch}
}

func (j *ChunkRetentionJob) Name() string {
	return "chunk_retention"
}

func (j *ChunkRetentionJob) Run(ctx context.Context) error {
	if j.purger == nil || j.maxAge <= 0 {
		return nil
	}
	total := 0
	for {
		purged, err := j.purger.PurgeExpired(ctx, j.maxAge, j.batch)
		total += purged
		if err != nil {
			return err
		}
		if purged < j.batch || ctx.Err() != nil {
			break
		}
	}
	if total > 0 {
		logutil.GetLogger(ctx).Info("expired documents purged", zap.Int("documents", total))
	}
	return nil
}
