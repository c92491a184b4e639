package job

import (
	"github.com/yamdb/yamdb/database"
	"github.com/yamdb/yamdb/logger"
	"github.com/yamdb/yamdb/util/common"
)

// CheckpointJob folds the sqlite write-ahead log back into the database
// file. It does nothing on postgres.
type CheckpointJob struct{}

func NewCheckpointJob() *CheckpointJob {
	return new(CheckpointJob)
}

func (j *CheckpointJob) Run() {
	defer common.Recover("checkpoint job")
	if err := database.Checkpoint(); err != nil {
		logger.Warning("sqlite checkpoint failed:", err)
	}
}
