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

// HistorySyncTask 按分钟心跳驱动历史同步。
// 倒计时持久化在设置表里，进程重启后从上次剩余值继续。
type HistorySyncTask struct {
	app      *app.App
	logger   *zap.Logger
	interval int
}

// Name returns the task name
func (t *HistorySyncTask) Name() string {
	return "HistorySync"
}

// LoopInterval 心跳固定一分钟，同步间隔由倒计时控制
func (t *HistorySyncTask) LoopInterval() time.Duration {
	return time.Minute
}

// IsStartupRun returns whether to run on startup
func (t *HistorySyncTask) IsStartupRun() bool {
	return true
}

// Run 递减倒计时，归零时执行同步并重置
func (t *HistorySyncTask) Run(ctx context.Context) error {
	remain, err := loadCountdown(ctx, t.app, domain.SettingHistoryCountdown)
	if err != nil {
		return err
	}
	remain--
	if remain > 0 {
		return saveCountdown(ctx, t.app, domain.SettingHistoryCountdown, remain)
	}

	// 无论同步成败都重置倒计时，失败的同步等下个周期重试
	defer func() {
		if err := saveCountdown(ctx, t.app, domain.SettingHistoryCountdown, t.interval); err != nil {
			t.logger.Warn("failed to persist countdown", zap.Error(err))
		}
	}()

	_, err = t.app.SyncService.SyncHistory(ctx, false, nil)
	if errors.Is(err, code.ErrAlreadyInProgress) {
		t.logger.Debug("history sync still running, skipping tick")
		return nil
	}
	return err
}

func loadCountdown(ctx context.Context, a *app.App, key string) (int, error) {
	v, err := a.SettingRepo.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	if v == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 1, nil
	}
	return n, nil
}

func saveCountdown(ctx context.Context, a *app.App, key string, remain int) error {
	return a.SettingRepo.Set(ctx, key, strconv.Itoa(remain))
}

// NewHistorySyncTask creates a new HistorySyncTask instance
func NewHistorySyncTask(a *app.App) (Task, error) {
	interval := global.Config.Sync.HistoryInterval
	if interval < 1 {
		interval = 1
	}
	return &HistorySyncTask{
		app:      a,
		logger:   a.Logger(),
		interval: interval,
	}, nil
}

func init() {
	Register(func(a *app.App) (Task, error) {
		return NewHistorySyncTask(a)
	})
}
