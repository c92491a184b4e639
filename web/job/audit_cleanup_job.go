// Package job holds the periodic maintenance tasks run by the server's cron.
package job

import (
	"github.com/yamdb/yamdb/logger"
	"github.com/yamdb/yamdb/util/common"
	"github.com/yamdb/yamdb/web/service"
)

const defaultRetentionDays = 90

// AuditCleanupJob cleans up old audit logs
type AuditCleanupJob struct {
	auditService  service.AuditLogService
	retentionDays int
}

// NewAuditCleanupJob keeps entries for retentionDays; zero or less means
// the default of 90 days.
func NewAuditCleanupJob(retentionDays int) *AuditCleanupJob {
	if retentionDays <= 0 {
		retentionDays = defaultRetentionDays
	}
	return &AuditCleanupJob{retentionDays: retentionDays}
}

// Run cleans up old audit logs
func (j *AuditCleanupJob) Run() {
	defer common.Recover("audit cleanup job")
	logger.Debug("Audit cleanup job started")

	removed, err := j.auditService.CleanOldLogs(j.retentionDays)
	if err != nil {
		logger.Warning("Failed to clean old audit logs:", err)
		return
	}
	logger.Debugf("Audit cleanup completed (retention: %d days, removed: %d)", j.retentionDays, removed)
}
