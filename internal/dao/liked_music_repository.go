package dao

import (
	"context"
	"fmt"

	"github.com/bilihist/bili-history-sync-service/internal/domain"
	"github.com/bilihist/bili-history-sync-service/internal/model"
	"github.com/bilihist/bili-history-sync-service/pkg/code"
	"github.com/bilihist/bili-history-sync-service/pkg/timex"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// likedMusicRepository 实现 domain.LikedMusicRepository 接口
type likedMusicRepository struct {
	dao *Dao
}

// NewLikedMusicRepository 创建 LikedMusicRepository 实例
func NewLikedMusicRepository(dao *Dao) domain.LikedMusicRepository {
	return &likedMusicRepository{dao: dao}
}

func (r *likedMusicRepository) toDomain(m *model.LikedMusic) *domain.LikedMusic {
	if m == nil {
		return nil
	}
	return &domain.LikedMusic{
		Bvid:    m.Bvid,
		Title:   m.Title,
		Author:  m.Author,
		Mid:     m.Mid,
		Pic:     m.Pic,
		AddedAt: m.AddedAt,
	}
}

func (r *likedMusicRepository) toModel(d *domain.LikedMusic) *model.LikedMusic {
	if d == nil {
		return nil
	}
	return &model.LikedMusic{
		Bvid:      d.Bvid,
		Title:     d.Title,
		Author:    d.Author,
		Mid:       d.Mid,
		Pic:       d.Pic,
		AddedAt:   d.AddedAt,
		UpdatedAt: timex.Now(),
	}
}

// Get 根据 bvid 获取记录，不存在返回 (nil, nil)
func (r *likedMusicRepository) Get(ctx context.Context, bvid string) (*domain.LikedMusic, error) {
	var m model.LikedMusic
	err := r.dao.Db.WithContext(ctx).Where("bvid = ?", bvid).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.toDomain(&m), nil
}

// Put 幂等写入单条记录
func (r *likedMusicRepository) Put(ctx context.Context, d *domain.LikedMusic) error {
	return r.dao.Db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(r.toModel(d)).Error
}

// PutBatch 逐条写入，失败不中断
func (r *likedMusicRepository) PutBatch(ctx context.Context, items []*domain.LikedMusic) error {
	failed := 0
	for _, d := range items {
		if err := r.Put(ctx, d); err != nil {
			failed++
		}
	}
	if failed > 0 {
		return code.ErrWriteFailed.WithDetails(fmt.Sprintf("%d of %d records failed", failed, len(items)))
	}
	return nil
}

// Delete 删除单条记录
func (r *likedMusicRepository) Delete(ctx context.Context, bvid string) error {
	return r.dao.Db.WithContext(ctx).Where("bvid = ?", bvid).Delete(&model.LikedMusic{}).Error
}

// Clear 清空全部记录
func (r *likedMusicRepository) Clear(ctx context.Context) error {
	return r.dao.Db.WithContext(ctx).Where("1 = 1").Delete(&model.LikedMusic{}).Error
}

// All 返回全部记录，按 added_at 降序
func (r *likedMusicRepository) All(ctx context.Context) ([]*domain.LikedMusic, error) {
	var rows []*model.LikedMusic
	if err := r.dao.Db.WithContext(ctx).Order("added_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*domain.LikedMusic, 0, len(rows))
	for _, m := range rows {
		out = append(out, r.toDomain(m))
	}
	return out, nil
}

// Count 返回记录总数
func (r *likedMusicRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.dao.Db.WithContext(ctx).Model(&model.LikedMusic{}).Count(&count).Error
	return count, err
}
