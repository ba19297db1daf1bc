package domain

import "context"

// HistoryRepository 观看历史仓库
// Get 在记录不存在时返回 (nil, nil)，供合并逻辑区分缺失与失败
type HistoryRepository interface {
	Get(ctx context.Context, id int64) (*History, error)
	Put(ctx context.Context, h *History) error
	PutBatch(ctx context.Context, items []*History) error
	Delete(ctx context.Context, id int64) error
	Clear(ctx context.Context) error
	// QueryPage 按 view_at 降序返回一页，beforeViewAt 为排他上界，0 表示从最新开始
	QueryPage(ctx context.Context, beforeViewAt int64, pageSize int, filter HistoryFilter) ([]*History, bool, error)
	All(ctx context.Context) ([]*History, error)
	Count(ctx context.Context) (int64, error)
	// Exists 仅检查主键存在性，不加载整行
	Exists(ctx context.Context, id int64) (bool, error)
}

// LikedMusicRepository 喜欢音乐仓库，以 bvid 为主键
type LikedMusicRepository interface {
	Get(ctx context.Context, bvid string) (*LikedMusic, error)
	Put(ctx context.Context, m *LikedMusic) error
	PutBatch(ctx context.Context, items []*LikedMusic) error
	Delete(ctx context.Context, bvid string) error
	Clear(ctx context.Context) error
	All(ctx context.Context) ([]*LikedMusic, error)
	Count(ctx context.Context) (int64, error)
}

// FavFolderRepository 收藏夹仓库，同步时整体 upsert，不做删除追踪
type FavFolderRepository interface {
	Get(ctx context.Context, id int64) (*FavoriteFolder, error)
	PutBatch(ctx context.Context, items []*FavoriteFolder) error
	All(ctx context.Context) ([]*FavoriteFolder, error)
}

// FavResourceRepository 收藏资源仓库
type FavResourceRepository interface {
	Get(ctx context.Context, id int64) (*FavoriteResource, error)
	PutBatch(ctx context.Context, items []*FavoriteResource) error
	All(ctx context.Context) ([]*FavoriteResource, error)
	ListByFolder(ctx context.Context, folderID int64) ([]*FavoriteResource, error)
	// DeleteAbsentInFolder 删除指定收藏夹内不在 keepIDs 中的资源，返回删除数
	DeleteAbsentInFolder(ctx context.Context, folderID int64, keepIDs []int64) (int64, error)
	Count(ctx context.Context) (int64, error)
}

// SettingRepository 键值设置仓库，存放同步游标与倒计时等少量状态
type SettingRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// 设置键名
const (
	SettingHasFullSync         = "has_full_sync"
	SettingHistoryCountdown    = "history_countdown"
	SettingFavoritesCountdown  = "favorites_countdown"
	SettingLastBackupAt        = "last_backup_at"
	SettingHistoryLastSyncAt   = "history_last_sync_at"
	SettingFavoritesLastSyncAt = "favorites_last_sync_at"
)
