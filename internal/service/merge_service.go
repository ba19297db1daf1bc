package service

import (
	"context"

	"github.com/bilihist/bili-history-sync-service/internal/domain"
	"github.com/bilihist/bili-history-sync-service/pkg/convert"

	"go.uber.org/zap"
)

// MergeService 定义时间戳智能合并接口。
// 合并只增不减：本地独有的记录永远保留，较新的本地版本不会被旧数据覆盖。
type MergeService interface {
	// MergeHistory 按 timestamp 合并观看历史
	MergeHistory(ctx context.Context, incoming []*domain.History) (domain.MergeResult, error)

	// MergeLikedMusic 按 added_at 合并喜欢的音乐
	MergeLikedMusic(ctx context.Context, incoming []*domain.LikedMusic) (domain.MergeResult, error)

	// MergeFavFolders 收藏夹无时间戳，直接 upsert
	MergeFavFolders(ctx context.Context, incoming []*domain.FavoriteFolder) (int, error)

	// MergeFavResources 按 fav_time 合并收藏资源，失效占位保留本地元数据。
	// 用于恢复与导入等外部批次，同步镜像写入走 MirrorFavResources
	MergeFavResources(ctx context.Context, incoming []*domain.FavoriteResource) (domain.MergeResult, error)

	// MirrorFavResources 同步镜像写入：远端是权威，无条件 upsert，
	// 只在来源为失效占位时保留本地元数据
	MirrorFavResources(ctx context.Context, incoming []*domain.FavoriteResource) error
}

// mergeService 实现 MergeService 接口
type mergeService struct {
	historyRepo domain.HistoryRepository
	musicRepo   domain.LikedMusicRepository
	folderRepo  domain.FavFolderRepository
	resRepo     domain.FavResourceRepository
	logger      *zap.Logger
}

// NewMergeService 创建 MergeService 实例
func NewMergeService(
	historyRepo domain.HistoryRepository,
	musicRepo domain.LikedMusicRepository,
	folderRepo domain.FavFolderRepository,
	resRepo domain.FavResourceRepository,
	logger *zap.Logger,
) MergeService {
	return &mergeService{
		historyRepo: historyRepo,
		musicRepo:   musicRepo,
		folderRepo:  folderRepo,
		resRepo:     resRepo,
		logger:      logger,
	}
}

// MergeHistory 本地缺失则插入，来源 timestamp 严格更大则覆盖，否则跳过
func (s *mergeService) MergeHistory(ctx context.Context, incoming []*domain.History) (domain.MergeResult, error) {
	var result domain.MergeResult
	for _, in := range incoming {
		local, err := s.historyRepo.Get(ctx, in.ID)
		if err != nil {
			return result, err
		}
		if local != nil && in.Timestamp <= local.Timestamp {
			result.Skipped++
			continue
		}
		if err := s.historyRepo.Put(ctx, in); err != nil {
			return result, err
		}
		result.Merged++
	}
	return result, nil
}

// MergeLikedMusic 本地缺失则插入，来源 added_at 严格更大则覆盖，否则跳过
func (s *mergeService) MergeLikedMusic(ctx context.Context, incoming []*domain.LikedMusic) (domain.MergeResult, error) {
	var result domain.MergeResult
	for _, in := range incoming {
		local, err := s.musicRepo.Get(ctx, in.Bvid)
		if err != nil {
			return result, err
		}
		if local != nil && in.AddedAt <= local.AddedAt {
			result.Skipped++
			continue
		}
		if err := s.musicRepo.Put(ctx, in); err != nil {
			return result, err
		}
		result.Merged++
	}
	return result, nil
}

// MergeFavFolders 收藏夹整体以来源为准
func (s *mergeService) MergeFavFolders(ctx context.Context, incoming []*domain.FavoriteFolder) (int, error) {
	if len(incoming) == 0 {
		return 0, nil
	}
	if err := s.folderRepo.PutBatch(ctx, incoming); err != nil {
		return 0, err
	}
	return len(incoming), nil
}

// MergeFavResources 按 fav_time 合并。
// 来源是失效占位而本地持有完整元数据时，写入来源记录但保留本地的
// 标题、封面、作者与投稿时间。
func (s *mergeService) MergeFavResources(ctx context.Context, incoming []*domain.FavoriteResource) (domain.MergeResult, error) {
	var result domain.MergeResult
	for _, in := range incoming {
		local, err := s.resRepo.Get(ctx, in.ID)
		if err != nil {
			return result, err
		}
		if local != nil && in.FavTime <= local.FavTime {
			result.Skipped++
			continue
		}

		merged := &domain.FavoriteResource{}
		if err := convert.CopyStruct(merged, in); err != nil {
			return result, err
		}
		if s.shouldRestoreMeta(in, local) {
			merged.Title = local.Title
			merged.Cover = local.Cover
			merged.UpperMid = local.UpperMid
			merged.UpperName = local.UpperName
			merged.Ctime = local.Ctime
			s.logger.Debug("preserved metadata for invalidated resource", zap.Int64("id", in.ID))
		}
		if err := s.resRepo.PutBatch(ctx, []*domain.FavoriteResource{merged}); err != nil {
			return result, err
		}
		result.Merged++
	}
	return result, nil
}

// MirrorFavResources 不比较 fav_time：同步时远端的标题、封面与
// 重新计算的展示序号都要落地，即使收藏时间没有变化。
func (s *mergeService) MirrorFavResources(ctx context.Context, incoming []*domain.FavoriteResource) error {
	out := make([]*domain.FavoriteResource, 0, len(incoming))
	for _, in := range incoming {
		local, err := s.resRepo.Get(ctx, in.ID)
		if err != nil {
			return err
		}
		merged := &domain.FavoriteResource{}
		if err := convert.CopyStruct(merged, in); err != nil {
			return err
		}
		if s.shouldRestoreMeta(in, local) {
			merged.Title = local.Title
			merged.Cover = local.Cover
			merged.UpperMid = local.UpperMid
			merged.UpperName = local.UpperName
			merged.Ctime = local.Ctime
			s.logger.Debug("preserved metadata for invalidated resource", zap.Int64("id", in.ID))
		}
		out = append(out, merged)
	}
	return s.resRepo.PutBatch(ctx, out)
}

// shouldRestoreMeta 来源失效而本地未失效时恢复本地元数据
func (s *mergeService) shouldRestoreMeta(in, local *domain.FavoriteResource) bool {
	return local != nil && in.IsInvalidated() && !local.IsInvalidated()
}

var _ MergeService = (*mergeService)(nil)
