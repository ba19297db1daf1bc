package service

import (
	"context"
	"testing"

	"github.com/bilihist/bili-history-sync-service/global"
	"github.com/bilihist/bili-history-sync-service/internal/bilibili"
	"github.com/bilihist/bili-history-sync-service/internal/domain"
	"github.com/bilihist/bili-history-sync-service/pkg/code"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeBili 内存实现 BiliClient
type fakeBili struct {
	credential   bool
	mid          int64
	historyPages []bilibili.HistoryPage
	folders      []bilibili.FolderInfo
	// resources 按收藏夹分页，folderID -> pages
	resources map[int64][][]bilibili.MediaInfo
	// failFolders 抓取即报错的收藏夹
	failFolders map[int64]bool

	historyCalls int
	deleted      []string
	deleteErr    error
}

func (f *fakeBili) HasCredential() bool { return f.credential }

func (f *fakeBili) Nav(ctx context.Context) (int64, error) { return f.mid, nil }

func (f *fakeBili) FetchHistoryPage(ctx context.Context, cursor bilibili.Cursor, pageSize int) (*bilibili.HistoryPage, error) {
	idx := int(cursor.Max)
	f.historyCalls++
	if idx >= len(f.historyPages) {
		return &bilibili.HistoryPage{}, nil
	}
	page := f.historyPages[idx]
	page.Cursor = bilibili.Cursor{Max: int64(idx + 1), ViewAt: 1}
	if idx+1 >= len(f.historyPages) {
		page.Cursor = bilibili.Cursor{}
	}
	return &page, nil
}

func (f *fakeBili) FetchFavoriteFolders(ctx context.Context, mid int64) ([]bilibili.FolderInfo, error) {
	return f.folders, nil
}

func (f *fakeBili) FetchFavoriteResourcePage(ctx context.Context, mediaID int64, pn, pageSize int) ([]bilibili.MediaInfo, bool, error) {
	if f.failFolders[mediaID] {
		return nil, false, code.ErrRemoteRejected
	}
	pages := f.resources[mediaID]
	if pn > len(pages) {
		return nil, false, nil
	}
	return pages[pn-1], pn < len(pages), nil
}

func (f *fakeBili) DeleteHistoryItem(ctx context.Context, business string, oid int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, business)
	return nil
}

func historyItem(oid int64, viewAt int64) bilibili.HistoryItem {
	item := bilibili.HistoryItem{
		Title:  "video",
		ViewAt: viewAt,
	}
	item.History.Oid = oid
	item.History.Business = "archive"
	return item
}

func newSyncEnv(t *testing.T, client *fakeBili, mirrorDeletes bool) (*serviceEnv, SyncService, *StateTracker) {
	env := newServiceEnv(t)
	tracker := NewStateTracker()
	svc := NewSyncService(
		client,
		env.historyRepo, env.folderRepo, env.resRepo, env.settingRepo,
		env.merge, tracker,
		&global.BilibiliConfig{PageSize: 2, FavPageSize: 2},
		&global.SyncConfig{MirrorDeletes: mirrorDeletes},
		zap.NewNop(),
	)
	return env, svc, tracker
}

func TestSyncHistory_FullWritesAllPages(t *testing.T) {
	client := &fakeBili{
		credential: true,
		historyPages: []bilibili.HistoryPage{
			{List: []bilibili.HistoryItem{historyItem(1, 400), historyItem(2, 300)}},
			{List: []bilibili.HistoryItem{historyItem(3, 200), historyItem(4, 100)}},
		},
	}
	env, svc, _ := newSyncEnv(t, client, false)

	var progressCalls int
	result, err := svc.SyncHistory(context.Background(), true, func(p Progress) { progressCalls++ })
	require.NoError(t, err)
	require.Equal(t, 2, result.Pages)
	require.Equal(t, 4, result.Written)
	require.False(t, result.Stopped)
	require.Positive(t, progressCalls)

	count, err := env.historyRepo.Count(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(4), count)

	// 全量完成后记录标记
	v, err := env.settingRepo.Get(context.Background(), domain.SettingHasFullSync)
	require.NoError(t, err)
	require.Equal(t, "1", v)
}

func TestSyncHistory_IncrementalStopsOnFullOverlap(t *testing.T) {
	client := &fakeBili{
		credential: true,
		historyPages: []bilibili.HistoryPage{
			{List: []bilibili.HistoryItem{historyItem(1, 400), historyItem(2, 300)}},
			{List: []bilibili.HistoryItem{historyItem(3, 200), historyItem(4, 100)}},
		},
	}
	env, svc, _ := newSyncEnv(t, client, false)
	ctx := context.Background()

	_, err := svc.SyncHistory(ctx, true, nil)
	require.NoError(t, err)

	before, err := env.historyRepo.All(ctx)
	require.NoError(t, err)

	// 首页首尾均已在本地，增量同步应当零写入提前终止
	result, err := svc.SyncHistory(ctx, false, nil)
	require.NoError(t, err)
	require.True(t, result.Stopped)
	require.Equal(t, 0, result.Written)

	after, err := env.historyRepo.All(ctx)
	require.NoError(t, err)
	require.Equal(t, len(before), len(after))
	for i := range before {
		require.Equal(t, before[i].Timestamp, after[i].Timestamp, "record %d rewritten", before[i].ID)
	}
}

func TestSyncHistory_IncrementalContinuesOnPartialOverlap(t *testing.T) {
	client := &fakeBili{
		credential: true,
		historyPages: []bilibili.HistoryPage{
			{List: []bilibili.HistoryItem{historyItem(9, 500), historyItem(1, 400)}},
		},
	}
	env, svc, _ := newSyncEnv(t, client, false)
	ctx := context.Background()

	require.NoError(t, env.settingRepo.Set(ctx, domain.SettingHasFullSync, "1"))
	// 只有尾条在本地，首条是新记录
	require.NoError(t, env.historyRepo.Put(ctx, &domain.History{ID: 1, Business: domain.BusinessArchive, Title: "v", ViewAt: 400, Timestamp: 1}))

	result, err := svc.SyncHistory(ctx, false, nil)
	require.NoError(t, err)
	require.False(t, result.Stopped)
	require.Equal(t, 2, result.Written)
}

func TestSyncHistory_IncrementalStopsMidRun(t *testing.T) {
	client := &fakeBili{
		credential: true,
		historyPages: []bilibili.HistoryPage{
			{List: []bilibili.HistoryItem{historyItem(9, 600), historyItem(8, 500)}},
			{List: []bilibili.HistoryItem{historyItem(1, 400), historyItem(2, 300)}},
			{List: []bilibili.HistoryItem{historyItem(3, 200), historyItem(4, 100)}},
		},
	}
	env, svc, _ := newSyncEnv(t, client, false)
	ctx := context.Background()

	require.NoError(t, env.settingRepo.Set(ctx, domain.SettingHasFullSync, "1"))
	// 第二页的内容已经在本地，第一页是新增
	require.NoError(t, env.historyRepo.Put(ctx, &domain.History{ID: 1, Business: domain.BusinessArchive, Title: "v1", ViewAt: 400, Timestamp: 1}))
	require.NoError(t, env.historyRepo.Put(ctx, &domain.History{ID: 2, Business: domain.BusinessArchive, Title: "v2", ViewAt: 300, Timestamp: 1}))

	result, err := svc.SyncHistory(ctx, false, nil)
	require.NoError(t, err)
	require.True(t, result.Stopped)
	require.Equal(t, 2, result.Written)
	// 命中边界页后不再继续翻页
	require.Equal(t, 2, client.historyCalls)

	got, err := env.historyRepo.Get(ctx, 3)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestSyncHistory_AuthRequired(t *testing.T) {
	client := &fakeBili{credential: false}
	_, svc, _ := newSyncEnv(t, client, false)

	_, err := svc.SyncHistory(context.Background(), true, nil)
	require.True(t, errors.Is(err, code.ErrAuthRequired))
}

func TestSyncHistory_ReentrancyGuard(t *testing.T) {
	client := &fakeBili{credential: true}
	_, svc, tracker := newSyncEnv(t, client, false)

	require.NoError(t, tracker.TryStart(SyncTypeHistory))
	defer tracker.Finish(SyncTypeHistory)

	_, err := svc.SyncHistory(context.Background(), true, nil)
	require.True(t, errors.Is(err, code.ErrAlreadyInProgress))

	// 守卫释放后可再次执行
	tracker.Finish(SyncTypeHistory)
	_, err = svc.SyncHistory(context.Background(), true, nil)
	require.NoError(t, err)
}

func media(id int64, title string, favTime int64) bilibili.MediaInfo {
	return bilibili.MediaInfo{ID: id, Title: title, FavTime: favTime}
}

func TestSyncFavorites_MirrorsAndCleans(t *testing.T) {
	client := &fakeBili{
		credential: true,
		mid:        5,
		folders: []bilibili.FolderInfo{
			{ID: 10, Mid: 5, Title: "默认收藏夹", MediaCount: 3},
		},
		resources: map[int64][][]bilibili.MediaInfo{
			10: {
				{media(1, "a", 100), media(2, "b", 200)},
				{media(3, "c", 300)},
			},
		},
	}
	env, svc, _ := newSyncEnv(t, client, false)
	ctx := context.Background()

	// 本地残留一条已取消收藏的资源
	require.NoError(t, env.resRepo.PutBatch(ctx, []*domain.FavoriteResource{{ID: 77, FolderID: 10, Title: "gone", FavTime: 1}}))

	result, err := svc.SyncFavorites(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, 1, result.Folders)
	require.Equal(t, 3, result.Resources)
	require.Equal(t, 1, result.RemovedItems)
	require.Equal(t, 0, result.FailedFolders)

	items, err := env.resRepo.ListByFolder(ctx, 10)
	require.NoError(t, err)
	require.Len(t, items, 3)
	// 全局序号跨页累计
	byID := map[int64]*domain.FavoriteResource{}
	for _, it := range items {
		byID[it.ID] = it
	}
	require.Equal(t, 0, byID[1].Index)
	require.Equal(t, 1, byID[2].Index)
	require.Equal(t, 2, byID[3].Index)
}

func TestSyncFavorites_KeepsVanishedFolders(t *testing.T) {
	client := &fakeBili{
		credential: true,
		mid:        5,
		folders: []bilibili.FolderInfo{
			{ID: 10, Mid: 5, Title: "默认收藏夹", MediaCount: 1},
		},
		resources: map[int64][][]bilibili.MediaInfo{
			10: {{media(1, "a", 100)}},
		},
	}
	env, svc, _ := newSyncEnv(t, client, false)
	ctx := context.Background()

	// 远端列表里已经没有收藏夹 99
	require.NoError(t, env.folderRepo.PutBatch(ctx, []*domain.FavoriteFolder{{ID: 99, Mid: 5, Title: "vanished"}}))
	require.NoError(t, env.resRepo.PutBatch(ctx, []*domain.FavoriteResource{{ID: 7, FolderID: 99, Title: "kept", FavTime: 1}}))

	_, err := svc.SyncFavorites(ctx, nil)
	require.NoError(t, err)

	// 收藏夹只 upsert 不删除，本地镜像连同资源一起保留
	folder, err := env.folderRepo.Get(ctx, 99)
	require.NoError(t, err)
	require.NotNil(t, folder)

	kept, err := env.resRepo.ListByFolder(ctx, 99)
	require.NoError(t, err)
	require.Len(t, kept, 1)
	require.Equal(t, "kept", kept[0].Title)
}

func TestSyncFavorites_RefreshesUnchangedFavTime(t *testing.T) {
	client := &fakeBili{
		credential: true,
		mid:        5,
		folders: []bilibili.FolderInfo{
			{ID: 10, Mid: 5, Title: "默认收藏夹", MediaCount: 1},
		},
		resources: map[int64][][]bilibili.MediaInfo{
			10: {{media(1, "renamed title", 100)}},
		},
	}
	env, svc, _ := newSyncEnv(t, client, false)
	ctx := context.Background()

	// fav_time 未变，但远端改了标题和顺序
	require.NoError(t, env.resRepo.PutBatch(ctx, []*domain.FavoriteResource{
		{ID: 1, FolderID: 10, Title: "old title", FavTime: 100, Index: 5},
	}))

	_, err := svc.SyncFavorites(ctx, nil)
	require.NoError(t, err)

	got, err := env.resRepo.Get(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "renamed title", got.Title)
	require.Equal(t, 0, got.Index)
}

func TestSyncFavorites_FolderFailureIsIsolated(t *testing.T) {
	client := &fakeBili{
		credential: true,
		mid:        5,
		folders: []bilibili.FolderInfo{
			{ID: 10, Mid: 5, Title: "ok", MediaCount: 1},
			{ID: 20, Mid: 5, Title: "broken", MediaCount: 1},
		},
		resources: map[int64][][]bilibili.MediaInfo{
			10: {{media(1, "a", 100)}},
		},
		failFolders: map[int64]bool{20: true},
	}
	env, svc, _ := newSyncEnv(t, client, false)
	ctx := context.Background()

	// 失败收藏夹的本地数据不能被清理
	require.NoError(t, env.resRepo.PutBatch(ctx, []*domain.FavoriteResource{{ID: 88, FolderID: 20, Title: "keep", FavTime: 1}}))

	result, err := svc.SyncFavorites(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, 1, result.FailedFolders)
	require.Equal(t, 1, result.Resources)

	kept, err := env.resRepo.ListByFolder(ctx, 20)
	require.NoError(t, err)
	require.Len(t, kept, 1)
}

func TestDeleteHistory_LocalOnly(t *testing.T) {
	client := &fakeBili{credential: true}
	env, svc, _ := newSyncEnv(t, client, false)
	ctx := context.Background()

	require.NoError(t, env.historyRepo.Put(ctx, &domain.History{ID: 1, Business: domain.BusinessArchive, Title: "v", ViewAt: 1, Timestamp: 1}))
	require.NoError(t, svc.DeleteHistory(ctx, 1))

	require.Empty(t, client.deleted)
	got, err := env.historyRepo.Get(ctx, 1)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestDeleteHistory_MirrorsRemote(t *testing.T) {
	client := &fakeBili{credential: true}
	env, svc, _ := newSyncEnv(t, client, true)
	ctx := context.Background()

	require.NoError(t, env.historyRepo.Put(ctx, &domain.History{ID: 1, Business: domain.BusinessPgc, Title: "v", ViewAt: 1, Timestamp: 1}))
	require.NoError(t, svc.DeleteHistory(ctx, 1))
	require.Equal(t, []string{"pgc"}, client.deleted)
}

func TestDeleteHistory_RemoteFailureIsSoft(t *testing.T) {
	client := &fakeBili{credential: true, deleteErr: code.ErrRemoteRejected}
	env, svc, _ := newSyncEnv(t, client, true)
	ctx := context.Background()

	require.NoError(t, env.historyRepo.Put(ctx, &domain.History{ID: 1, Business: domain.BusinessArchive, Title: "v", ViewAt: 1, Timestamp: 1}))
	// 远端拒绝不影响本地删除结果
	require.NoError(t, svc.DeleteHistory(ctx, 1))

	got, err := env.historyRepo.Get(ctx, 1)
	require.NoError(t, err)
	require.Nil(t, got)
}
