package service

import (
	"context"
	"strings"
	"time"

	"github.com/bilihist/bili-history-sync-service/internal/domain"

	"go.uber.org/zap"
)

// MusicService 定义喜欢音乐的业务接口
type MusicService interface {
	// Like 收藏一首音乐，重复收藏覆盖元数据
	Like(ctx context.Context, m *domain.LikedMusic) error

	// Unlike 取消收藏
	Unlike(ctx context.Context, bvid string) error

	// List 按 added_at 降序列出，keyword 过滤标题与作者
	List(ctx context.Context, keyword string) ([]*domain.LikedMusic, error)
}

// musicService 实现 MusicService 接口
type musicService struct {
	musicRepo domain.LikedMusicRepository
	logger    *zap.Logger
}

// NewMusicService 创建 MusicService 实例
func NewMusicService(musicRepo domain.LikedMusicRepository, logger *zap.Logger) MusicService {
	return &musicService{musicRepo: musicRepo, logger: logger}
}

// Like 收藏音乐，未填 AddedAt 时取当前毫秒时间戳（与导入导出格式一致）
func (s *musicService) Like(ctx context.Context, m *domain.LikedMusic) error {
	if m.AddedAt == 0 {
		m.AddedAt = time.Now().UnixMilli()
	}
	if err := s.musicRepo.Put(ctx, m); err != nil {
		return err
	}
	s.logger.Info("music liked", zap.String("bvid", m.Bvid), zap.String("title", m.Title))
	return nil
}

// Unlike 取消收藏
func (s *musicService) Unlike(ctx context.Context, bvid string) error {
	return s.musicRepo.Delete(ctx, bvid)
}

// List 过滤在内存完成，集合量级很小
func (s *musicService) List(ctx context.Context, keyword string) ([]*domain.LikedMusic, error) {
	all, err := s.musicRepo.All(ctx)
	if err != nil {
		return nil, err
	}
	if keyword == "" {
		return all, nil
	}
	kw := strings.ToLower(keyword)
	out := make([]*domain.LikedMusic, 0, len(all))
	for _, m := range all {
		if strings.Contains(strings.ToLower(m.Title), kw) || strings.Contains(strings.ToLower(m.Author), kw) {
			out = append(out, m)
		}
	}
	return out, nil
}

var _ MusicService = (*musicService)(nil)
