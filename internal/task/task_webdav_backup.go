package task

import (
	"context"
	"strconv"
	"time"

	"github.com/bilihist/bili-history-sync-service/global"
	"github.com/bilihist/bili-history-sync-service/internal/app"
	"github.com/bilihist/bili-history-sync-service/internal/domain"
	"github.com/bilihist/bili-history-sync-service/pkg/code"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// WebDAVBackupTask 按 cron 表达式计算的触发点执行自动备份
type WebDAVBackupTask struct {
	app    *app.App
	logger *zap.Logger
}

// Name returns the task name
func (t *WebDAVBackupTask) Name() string {
	return "WebDAVBackup"
}

// LoopInterval 每分钟对照一次触发点
func (t *WebDAVBackupTask) LoopInterval() time.Duration {
	return time.Minute
}

// IsStartupRun returns whether to run on startup
func (t *WebDAVBackupTask) IsStartupRun() bool {
	return false
}

// Run 上次备份之后的第一个 cron 触发点已过则执行备份
func (t *WebDAVBackupTask) Run(ctx context.Context) error {
	lastRaw, err := t.app.SettingRepo.Get(ctx, domain.SettingLastBackupAt)
	if err != nil {
		return err
	}
	last := time.Time{}
	if lastRaw != "" {
		if sec, err := strconv.ParseInt(lastRaw, 10, 64); err == nil {
			last = time.Unix(sec, 0)
		}
	}
	if last.IsZero() {
		// 没有备份过，从现在起算下一个触发点
		return t.app.SettingRepo.Set(ctx, domain.SettingLastBackupAt,
			strconv.FormatInt(time.Now().Unix(), 10))
	}

	next, err := t.app.BackupService.NextBackupTime(last)
	if err != nil {
		return err
	}
	if time.Now().Before(next) {
		return nil
	}

	t.logger.Info("auto backup triggered", zap.Time("scheduled", next))
	err = t.app.BackupService.BackupToWebDAV(ctx)
	if errors.Is(err, code.ErrAlreadyInProgress) {
		t.logger.Debug("backup guard busy, skipping tick")
		return nil
	}
	return err
}

// NewWebDAVBackupTask 未配置或未启用自动备份时返回 nil 任务
func NewWebDAVBackupTask(a *app.App) (Task, error) {
	conf := &global.Config.WebDAV
	if !conf.IsConfigured() || !conf.AutoBackupEnabled {
		return nil, nil
	}
	return &WebDAVBackupTask{
		app:    a,
		logger: a.Logger(),
	}, nil
}

func init() {
	Register(func(a *app.App) (Task, error) {
		return NewWebDAVBackupTask(a)
	})
}
