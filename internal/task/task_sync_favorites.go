package task

import (
	"context"
	"time"

	"github.com/bilihist/bili-history-sync-service/global"
	"github.com/bilihist/bili-history-sync-service/internal/app"
	"github.com/bilihist/bili-history-sync-service/internal/domain"
	"github.com/bilihist/bili-history-sync-service/pkg/code"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// FavoritesSyncTask 按分钟心跳驱动收藏夹同步
type FavoritesSyncTask struct {
	app      *app.App
	logger   *zap.Logger
	interval int
}

// Name returns the task name
func (t *FavoritesSyncTask) Name() string {
	return "FavoritesSync"
}

// LoopInterval 心跳固定一分钟，同步间隔由倒计时控制
func (t *FavoritesSyncTask) LoopInterval() time.Duration {
	return time.Minute
}

// IsStartupRun returns whether to run on startup
func (t *FavoritesSyncTask) IsStartupRun() bool {
	return false
}

// Run 递减倒计时，归零时执行同步并重置
func (t *FavoritesSyncTask) Run(ctx context.Context) error {
	remain, err := loadCountdown(ctx, t.app, domain.SettingFavoritesCountdown)
	if err != nil {
		return err
	}
	remain--
	if remain > 0 {
		return saveCountdown(ctx, t.app, domain.SettingFavoritesCountdown, remain)
	}

	defer func() {
		if err := saveCountdown(ctx, t.app, domain.SettingFavoritesCountdown, t.interval); err != nil {
			t.logger.Warn("failed to persist countdown", zap.Error(err))
		}
	}()

	_, err = t.app.SyncService.SyncFavorites(ctx, nil)
	if errors.Is(err, code.ErrAlreadyInProgress) {
		t.logger.Debug("favorites sync still running, skipping tick")
		return nil
	}
	return err
}

// NewFavoritesSyncTask 功能开关关闭时返回 nil 任务
func NewFavoritesSyncTask(a *app.App) (Task, error) {
	if !global.Config.Sync.FavoritesEnabled {
		return nil, nil
	}
	interval := global.Config.Sync.FavoritesInterval
	if interval < 1 {
		interval = 1
	}
	return &FavoritesSyncTask{
		app:      a,
		logger:   a.Logger(),
		interval: interval,
	}, nil
}

func init() {
	Register(func(a *app.App) (Task, error) {
		return NewFavoritesSyncTask(a)
	})
}
