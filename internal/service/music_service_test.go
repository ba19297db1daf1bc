package service

import (
	"context"
	"testing"
	"time"

	"github.com/bilihist/bili-history-sync-service/internal/domain"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMusicService_LikeIsIdempotent(t *testing.T) {
	env := newServiceEnv(t)
	svc := NewMusicService(env.musicRepo, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, svc.Like(ctx, &domain.LikedMusic{
		Bvid: "BV1abc", Title: "夜曲", Author: "周杰伦", AddedAt: 100,
	}))
	require.NoError(t, svc.Like(ctx, &domain.LikedMusic{
		Bvid: "BV1abc", Title: "夜曲 (live)", Author: "周杰伦", AddedAt: 200,
	}))

	count, err := env.musicRepo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	got, err := env.musicRepo.Get(ctx, "BV1abc")
	require.NoError(t, err)
	require.Equal(t, "夜曲 (live)", got.Title)
	require.Equal(t, int64(200), got.AddedAt)
}

func TestMusicService_LikeStampsMilliseconds(t *testing.T) {
	env := newServiceEnv(t)
	svc := NewMusicService(env.musicRepo, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, svc.Like(ctx, &domain.LikedMusic{Bvid: "BV2def", Title: "untagged"}))

	got, err := env.musicRepo.Get(ctx, "BV2def")
	require.NoError(t, err)
	// added_at 是毫秒时间戳，秒级时间戳会在合并时输给任何导入记录
	require.GreaterOrEqual(t, got.AddedAt, time.Now().Add(-time.Minute).UnixMilli())
	require.LessOrEqual(t, got.AddedAt, time.Now().UnixMilli())

	// 较旧的导入记录不能覆盖刚收藏的本地记录
	result, err := env.merge.MergeLikedMusic(ctx, []*domain.LikedMusic{
		{Bvid: "BV2def", Title: "imported", AddedAt: time.Now().Add(-time.Hour).UnixMilli()},
	})
	require.NoError(t, err)
	require.Equal(t, 1, result.Skipped)

	got, err = env.musicRepo.Get(ctx, "BV2def")
	require.NoError(t, err)
	require.Equal(t, "untagged", got.Title)
}

func TestMusicService_ListFiltersAndOrders(t *testing.T) {
	env := newServiceEnv(t)
	svc := NewMusicService(env.musicRepo, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, svc.Like(ctx, &domain.LikedMusic{Bvid: "BV1", Title: "Lo-fi beats", Author: "someone", AddedAt: 100}))
	require.NoError(t, svc.Like(ctx, &domain.LikedMusic{Bvid: "BV2", Title: "钢琴曲", Author: "pianist", AddedAt: 300}))
	require.NoError(t, svc.Like(ctx, &domain.LikedMusic{Bvid: "BV3", Title: "晚安钢琴", Author: "another", AddedAt: 200}))

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	// added_at 降序
	require.Equal(t, "BV2", all[0].Bvid)
	require.Equal(t, "BV3", all[1].Bvid)

	// 关键字同时匹配标题与作者，大小写不敏感
	got, err := svc.List(ctx, "钢琴")
	require.NoError(t, err)
	require.Len(t, got, 2)

	got, err = svc.List(ctx, "PIANIST")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "BV2", got[0].Bvid)
}

func TestMusicService_Unlike(t *testing.T) {
	env := newServiceEnv(t)
	svc := NewMusicService(env.musicRepo, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, svc.Like(ctx, &domain.LikedMusic{Bvid: "BV1", Title: "t", AddedAt: 1}))
	require.NoError(t, svc.Unlike(ctx, "BV1"))
	// 不存在时静默成功
	require.NoError(t, svc.Unlike(ctx, "BV1"))

	got, err := env.musicRepo.Get(ctx, "BV1")
	require.NoError(t, err)
	require.Nil(t, got)
}
