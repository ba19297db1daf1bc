// Package app 组装应用依赖
package app

import (
	"github.com/bilihist/bili-history-sync-service/global"
	"github.com/bilihist/bili-history-sync-service/internal/bilibili"
	"github.com/bilihist/bili-history-sync-service/internal/dao"
	"github.com/bilihist/bili-history-sync-service/internal/domain"
	"github.com/bilihist/bili-history-sync-service/internal/migration"
	"github.com/bilihist/bili-history-sync-service/internal/service"
	"github.com/bilihist/bili-history-sync-service/pkg/webdav"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App 聚合配置、存储与各业务服务，cmd 与 task 都通过它取依赖
type App struct {
	logger *zap.Logger
	db     *gorm.DB

	Dao         *dao.Dao
	HistoryRepo domain.HistoryRepository
	MusicRepo   domain.LikedMusicRepository
	FolderRepo  domain.FavFolderRepository
	ResRepo     domain.FavResourceRepository
	SettingRepo domain.SettingRepository

	Tracker *service.StateTracker

	MergeService  service.MergeService
	MusicService  service.MusicService
	SyncService   service.SyncService
	BackupService service.BackupService
}

// NewApp 按全局配置构建应用容器，打开本地库并执行迁移
func NewApp(logger *zap.Logger) (*App, error) {
	conf := global.Config

	db, err := dao.NewDBEngine(&conf.Database)
	if err != nil {
		return nil, err
	}
	if err := migration.Run(db, logger); err != nil {
		return nil, err
	}

	d := dao.New(db)
	a := &App{
		logger:      logger,
		db:          db,
		Dao:         d,
		HistoryRepo: dao.NewHistoryRepository(d),
		MusicRepo:   dao.NewLikedMusicRepository(d),
		FolderRepo:  dao.NewFavFolderRepository(d),
		ResRepo:     dao.NewFavResourceRepository(d),
		SettingRepo: dao.NewSettingRepository(d),
		Tracker:     service.NewStateTracker(),
	}

	a.MergeService = service.NewMergeService(a.HistoryRepo, a.MusicRepo, a.FolderRepo, a.ResRepo, logger)
	a.MusicService = service.NewMusicService(a.MusicRepo, logger)

	client := bilibili.NewClient(conf.Bilibili.Sessdata, conf.Bilibili.BiliJct)
	a.SyncService = service.NewSyncService(
		client,
		a.HistoryRepo, a.FolderRepo, a.ResRepo, a.SettingRepo,
		a.MergeService, a.Tracker,
		&conf.Bilibili, &conf.Sync, logger,
	)

	// WebDAV 未配置时 remote 为空，备份服务仅提供导入导出能力
	var remote service.RemoteStore
	if conf.WebDAV.IsConfigured() {
		w, err := webdav.NewClient(&conf.WebDAV)
		if err != nil {
			return nil, err
		}
		remote = w
	}
	a.BackupService = service.NewBackupService(
		remote,
		a.HistoryRepo, a.MusicRepo, a.FolderRepo, a.ResRepo, a.SettingRepo,
		a.MergeService, a.Tracker,
		conf.WebDAV.AutoBackupSchedule, logger,
	)

	return a, nil
}

// Logger 返回应用日志器
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Close 关闭底层数据库连接
func (a *App) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
