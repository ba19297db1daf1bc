package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bilihist/bili-history-sync-service/global"
	"github.com/bilihist/bili-history-sync-service/internal/bilibili"
	"github.com/bilihist/bili-history-sync-service/internal/domain"
	"github.com/bilihist/bili-history-sync-service/pkg/code"
	pkglogger "github.com/bilihist/bili-history-sync-service/pkg/logger"

	"github.com/juju/ratelimit"
	"go.uber.org/zap"
)

// BiliClient 同步服务所依赖的远端接口面
type BiliClient interface {
	HasCredential() bool
	Nav(ctx context.Context) (int64, error)
	FetchHistoryPage(ctx context.Context, cursor bilibili.Cursor, pageSize int) (*bilibili.HistoryPage, error)
	FetchFavoriteFolders(ctx context.Context, mid int64) ([]bilibili.FolderInfo, error)
	FetchFavoriteResourcePage(ctx context.Context, mediaID int64, pn, pageSize int) ([]bilibili.MediaInfo, bool, error)
	DeleteHistoryItem(ctx context.Context, business string, oid int64) error
}

// HistorySyncResult 历史同步结果
type HistorySyncResult struct {
	Pages   int  `json:"pages"`
	Fetched int  `json:"fetched"`
	Written int  `json:"written"`
	Stopped bool `json:"stopped"`
}

// FavoritesSyncResult 收藏夹同步结果
type FavoritesSyncResult struct {
	Folders       int `json:"folders"`
	Resources     int `json:"resources"`
	RemovedItems  int `json:"removedItems"`
	FailedFolders int `json:"failedFolders"`
}

// SyncService 定义与远端的同步业务接口
type SyncService interface {
	// SyncHistory 拉取观看历史。full 为 true 时强制全量，
	// 否则在完成过一次全量后走增量，某页完全命中本地即提前终止。
	SyncHistory(ctx context.Context, full bool, onProgress func(Progress)) (*HistorySyncResult, error)

	// SyncFavorites 全量镜像收藏夹与资源。收藏夹只 upsert 不删除，
	// 资源按收藏夹清理远端已不存在的条目
	SyncFavorites(ctx context.Context, onProgress func(Progress)) (*FavoritesSyncResult, error)

	// DeleteHistory 删除本地历史，按配置镜像删除远端
	DeleteHistory(ctx context.Context, id int64) error
}

// syncService 实现 SyncService 接口
type syncService struct {
	client      BiliClient
	historyRepo domain.HistoryRepository
	folderRepo  domain.FavFolderRepository
	resRepo     domain.FavResourceRepository
	settingRepo domain.SettingRepository
	merge       MergeService
	tracker     *StateTracker
	conf        *global.BilibiliConfig
	syncConf    *global.SyncConfig
	logger      *zap.Logger

	// pageBucket 限制历史翻页频率，每秒一页
	pageBucket *ratelimit.Bucket
	// favBucket 收藏夹翻页限速，每秒两页
	favBucket *ratelimit.Bucket
}

// NewSyncService 创建 SyncService 实例
func NewSyncService(
	client BiliClient,
	historyRepo domain.HistoryRepository,
	folderRepo domain.FavFolderRepository,
	resRepo domain.FavResourceRepository,
	settingRepo domain.SettingRepository,
	merge MergeService,
	tracker *StateTracker,
	conf *global.BilibiliConfig,
	syncConf *global.SyncConfig,
	logger *zap.Logger,
) SyncService {
	return &syncService{
		client:      client,
		historyRepo: historyRepo,
		folderRepo:  folderRepo,
		resRepo:     resRepo,
		settingRepo: settingRepo,
		merge:       merge,
		tracker:     tracker,
		conf:        conf,
		syncConf:    syncConf,
		logger:      logger,
		pageBucket:  ratelimit.NewBucket(time.Second, 1),
		favBucket:   ratelimit.NewBucket(500*time.Millisecond, 1),
	}
}

func (s *syncService) toHistory(item *bilibili.HistoryItem) *domain.History {
	return &domain.History{
		ID:         item.ID(),
		Business:   domain.Business(item.Business()),
		Bvid:       item.History.Bvid,
		Cid:        fmt.Sprintf("%d", item.History.Cid),
		Title:      item.Title,
		Cover:      item.CoverURL(),
		TagName:    item.TagName,
		URI:        item.URI,
		ViewAt:     item.ViewAt,
		AuthorName: item.AuthorName,
		AuthorMid:  item.AuthorMid,
		Progress:   item.Progress,
		Duration:   item.Duration,
		Timestamp:  time.Now().UnixMilli(),
	}
}

// waitBucket 页间限速，上下文取消优先生效
func waitBucket(ctx context.Context, bucket *ratelimit.Bucket) error {
	d := bucket.Take(1)
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func (s *syncService) waitPage(ctx context.Context) error {
	return waitBucket(ctx, s.pageBucket)
}

func (s *syncService) waitFavPage(ctx context.Context) error {
	return waitBucket(ctx, s.favBucket)
}

// SyncHistory 按游标逐页拉取。
// 增量模式下每拉到一页就检查该页首尾两条是否都已存在于本地，
// 都存在则认为已到增量边界，该页不写入并终止。
// 远端在两次同步之间先插后删留下空洞时，该启发式会漏掉空洞之后的记录。
func (s *syncService) SyncHistory(ctx context.Context, full bool, onProgress func(Progress)) (*HistorySyncResult, error) {
	if err := s.tracker.TryStart(SyncTypeHistory); err != nil {
		return nil, err
	}
	defer s.tracker.Finish(SyncTypeHistory)

	if !s.client.HasCredential() {
		return nil, code.ErrAuthRequired
	}

	report := func(p Progress) {
		s.tracker.SetProgress(SyncTypeHistory, p)
		if onProgress != nil {
			onProgress(p)
		}
	}

	hasFullSync, err := s.settingRepo.Get(ctx, domain.SettingHasFullSync)
	if err != nil {
		return nil, err
	}
	incremental := !full && hasFullSync == "1"

	start := time.Now()
	result := &HistorySyncResult{}
	cursor := bilibili.Cursor{}

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		page, err := s.client.FetchHistoryPage(ctx, cursor, s.conf.PageSize)
		if err != nil {
			return result, err
		}
		if len(page.List) == 0 {
			break
		}
		result.Pages++
		result.Fetched += len(page.List)

		if incremental {
			overlap, err := s.pageOverlap(ctx, page.List)
			if err != nil {
				return result, err
			}
			if overlap {
				// 该页首尾均已在本地，增量边界已到，该页不写入
				result.Stopped = true
				report(Progress{Current: result.Written, Message: "reached synced boundary"})
				break
			}
		}

		items := make([]*domain.History, 0, len(page.List))
		for i := range page.List {
			items = append(items, s.toHistory(&page.List[i]))
		}
		if err := s.historyRepo.PutBatch(ctx, items); err != nil {
			return result, err
		}
		result.Written += len(items)
		report(Progress{
			Current: result.Written,
			Message: fmt.Sprintf("synced %d records", result.Written),
		})

		cursor = page.Cursor
		if cursor.IsZero() {
			break
		}
		if err := s.waitPage(ctx); err != nil {
			return result, err
		}
	}

	if !incremental {
		if err := s.settingRepo.Set(ctx, domain.SettingHasFullSync, "1"); err != nil {
			return result, err
		}
	}
	s.recordLastSync(ctx, domain.SettingHistoryLastSyncAt)

	s.logger.Info("history sync finished",
		zap.String(pkglogger.FieldSyncType, string(SyncTypeHistory)),
		zap.Int(pkglogger.FieldPage, result.Pages),
		zap.Int(pkglogger.FieldCount, result.Written),
		zap.Duration(pkglogger.FieldDuration, time.Since(start)))
	return result, nil
}

// recordLastSync 记录完成时间，写入失败只告警不影响同步结果
func (s *syncService) recordLastSync(ctx context.Context, key string) {
	now := fmt.Sprintf("%d", time.Now().UnixMilli())
	if err := s.settingRepo.Set(ctx, key, now); err != nil {
		s.logger.Warn("record last sync time failed", zap.Error(err))
	}
}

// pageOverlap 单页首尾两条都已存在时判定本地已覆盖该时间段
func (s *syncService) pageOverlap(ctx context.Context, list []bilibili.HistoryItem) (bool, error) {
	first, err := s.historyRepo.Exists(ctx, list[0].History.Oid)
	if err != nil || !first {
		return false, err
	}
	last, err := s.historyRepo.Exists(ctx, list[len(list)-1].History.Oid)
	if err != nil {
		return false, err
	}
	return last, nil
}

// SyncFavorites 镜像收藏夹。
// 单个收藏夹抓取失败只跳过该收藏夹，不影响其余收藏夹，
// 也不触发该收藏夹的本地清理。
func (s *syncService) SyncFavorites(ctx context.Context, onProgress func(Progress)) (*FavoritesSyncResult, error) {
	if err := s.tracker.TryStart(SyncTypeFavorites); err != nil {
		return nil, err
	}
	defer s.tracker.Finish(SyncTypeFavorites)

	if !s.client.HasCredential() {
		return nil, code.ErrAuthRequired
	}

	report := func(p Progress) {
		s.tracker.SetProgress(SyncTypeFavorites, p)
		if onProgress != nil {
			onProgress(p)
		}
	}

	mid, err := s.client.Nav(ctx)
	if err != nil {
		return nil, err
	}

	infos, err := s.client.FetchFavoriteFolders(ctx, mid)
	if err != nil {
		return nil, err
	}

	totalEstimate := 0
	folders := make([]*domain.FavoriteFolder, 0, len(infos))
	for i, info := range infos {
		totalEstimate += int(info.MediaCount)
		folders = append(folders, &domain.FavoriteFolder{
			ID:         info.ID,
			Mid:        info.Mid,
			Title:      info.Title,
			MediaCount: info.MediaCount,
			Index:      i,
		})
	}

	// 收藏夹本身只 upsert 不做删除追踪，
	// 远端消失的收藏夹保留本地镜像及其资源
	result := &FavoritesSyncResult{Folders: len(folders)}
	if _, err := s.merge.MergeFavFolders(ctx, folders); err != nil {
		return result, err
	}

	processed := 0
	for _, folder := range folders {
		removed, count, err := s.syncFolder(ctx, folder, totalEstimate, &processed, report)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			result.FailedFolders++
			s.logger.Warn("folder sync failed, skipping",
				zap.String(pkglogger.FieldFolder, folder.Title),
				zap.Int64(pkglogger.FieldFolderID, folder.ID),
				zap.Error(err))
			continue
		}
		result.Resources += count
		result.RemovedItems += int(removed)
	}

	s.recordLastSync(ctx, domain.SettingFavoritesLastSyncAt)
	s.logger.Info("favorites sync finished",
		zap.String(pkglogger.FieldSyncType, string(SyncTypeFavorites)),
		zap.Int("folders", result.Folders),
		zap.Int(pkglogger.FieldCount, result.Resources),
		zap.Int("failed", result.FailedFolders))
	return result, nil
}

// syncFolder 拉取单个收藏夹的全部资源并清理远端已移除的条目
func (s *syncService) syncFolder(ctx context.Context, folder *domain.FavoriteFolder, totalEstimate int, processed *int, report func(Progress)) (int64, int, error) {
	onlineIDs := make([]int64, 0, folder.MediaCount)
	count := 0

	for pn := 1; ; pn++ {
		if err := ctx.Err(); err != nil {
			return 0, count, err
		}

		medias, hasMore, err := s.client.FetchFavoriteResourcePage(ctx, folder.ID, pn, s.conf.FavPageSize)
		if err != nil {
			return 0, count, err
		}
		if len(medias) == 0 {
			break
		}

		resources := make([]*domain.FavoriteResource, 0, len(medias))
		for i, m := range medias {
			onlineIDs = append(onlineIDs, m.ID)
			resources = append(resources, &domain.FavoriteResource{
				ID:        m.ID,
				FolderID:  folder.ID,
				Title:     m.Title,
				Cover:     m.Cover,
				UpperMid:  m.Upper.Mid,
				UpperName: m.Upper.Name,
				Ctime:     m.Ctime,
				FavTime:   m.FavTime,
				BvID:      m.BvID,
				Index:     (pn-1)*s.conf.FavPageSize + i,
			})
		}
		if err := s.merge.MirrorFavResources(ctx, resources); err != nil {
			return 0, count, err
		}
		count += len(resources)
		*processed += len(resources)
		report(Progress{
			Current: *processed,
			Total:   totalEstimate,
			Message: fmt.Sprintf("syncing %s", folder.Title),
		})

		if !hasMore {
			break
		}
		if err := s.waitFavPage(ctx); err != nil {
			return 0, count, err
		}
	}

	removed, err := s.resRepo.DeleteAbsentInFolder(ctx, folder.ID, onlineIDs)
	if err != nil {
		return 0, count, err
	}
	return removed, count, nil
}

// DeleteHistory 本地删除永远执行，远端删除是尽力而为
func (s *syncService) DeleteHistory(ctx context.Context, id int64) error {
	record, err := s.historyRepo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.historyRepo.Delete(ctx, id); err != nil {
		return err
	}
	if !s.syncConf.MirrorDeletes || record == nil {
		return nil
	}
	if err := s.client.DeleteHistoryItem(ctx, string(record.Business), id); err != nil {
		s.logger.Warn("remote delete failed, local delete stands",
			zap.Int64("id", id), zap.Error(err))
	}
	return nil
}

var _ SyncService = (*syncService)(nil)
