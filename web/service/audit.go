package service

import (
	"context"
	"fmt"
	"time"

	"github.com/yamdb/yamdb/database"
	"github.com/yamdb/yamdb/database/model"
	"github.com/yamdb/yamdb/logger"
	"github.com/yamdb/yamdb/util/metrics"
	"github.com/yamdb/yamdb/web/access"
	"github.com/yamdb/yamdb/web/entity"

	"github.com/goccy/go-json"
	"gorm.io/gorm"
)

// AuditLogService journals state-changing requests of authenticated users.
type AuditLogService struct{}

// AuditRecord is one request to journal.
type AuditRecord struct {
	Actor     *access.Actor
	Method    string
	Path      string
	Status    int
	IP        string
	UserAgent string
	Details   map[string]any
}

// AuditFilter narrows the journal listing. Empty fields do not filter.
type AuditFilter struct {
	Username string
	Method   string
}

func (s *AuditLogService) LogAction(ctx context.Context, rec AuditRecord) error {
	if rec.Actor == nil {
		return nil
	}
	detailsJSON := ""
	if rec.Details != nil {
		data, err := json.Marshal(rec.Details)
		if err != nil {
			logger.Warning("Failed to marshal audit log details:", err)
		} else {
			detailsJSON = string(data)
		}
	}

	entry := model.AuditLog{
		UserID:    rec.Actor.ID,
		Username:  rec.Actor.Username,
		Method:    rec.Method,
		Path:      rec.Path,
		Status:    rec.Status,
		IP:        rec.IP,
		UserAgent: rec.UserAgent,
		Details:   detailsJSON,
		Timestamp: time.Now(),
	}
	if err := conn(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

// List returns the newest entries first.
func (s *AuditLogService) List(ctx context.Context, actor *access.Actor, f AuditFilter, p entity.PageRequest) ([]model.AuditLog, int64, error) {
	if err := access.AdminOnly.Check(actor, access.Read); err != nil {
		return nil, 0, err
	}
	filtered := func() *gorm.DB {
		q := conn(ctx).Model(&model.AuditLog{})
		if f.Username != "" {
			q = q.Where("username = ?", f.Username)
		}
		if f.Method != "" {
			q = q.Where("method = ?", f.Method)
		}
		return q
	}
	var count int64
	if err := filtered().Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("count audit logs: %w", err)
	}
	logs := make([]model.AuditLog, 0)
	if err := paginate(filtered().Order("timestamp DESC, id DESC"), p).Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}
	return logs, count, nil
}

// CleanOldLogs removes entries older than days and returns how many went.
func (s *AuditLogService) CleanOldLogs(days int) (int64, error) {
	if days <= 0 {
		return 0, fmt.Errorf("days must be greater than 0")
	}
	cutoff := time.Now().AddDate(0, 0, -days)
	result := database.GetDB().Where("timestamp < ?", cutoff).Delete(&model.AuditLog{})
	if result.Error != nil {
		return 0, result.Error
	}
	metrics.AuditLogsCleaned.Add(float64(result.RowsAffected))
	logger.Infof("Cleaned %d old audit logs (older than %d days)", result.RowsAffected, days)
	return result.RowsAffected, nil
}
