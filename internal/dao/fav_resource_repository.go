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

// favResourceRepository 实现 domain.FavResourceRepository 接口
type favResourceRepository struct {
	dao *Dao
}

// NewFavResourceRepository 创建 FavResourceRepository 实例
func NewFavResourceRepository(dao *Dao) domain.FavResourceRepository {
	return &favResourceRepository{dao: dao}
}

func (r *favResourceRepository) toDomain(m *model.FavResource) *domain.FavoriteResource {
	if m == nil {
		return nil
	}
	return &domain.FavoriteResource{
		ID:        m.ID,
		FolderID:  m.FolderID,
		Title:     m.Title,
		Cover:     m.Cover,
		UpperMid:  m.UpperMid,
		UpperName: m.UpperName,
		Ctime:     m.Ctime,
		FavTime:   m.FavTime,
		BvID:      m.BvID,
		Index:     m.SortIndex,
	}
}

func (r *favResourceRepository) toModel(d *domain.FavoriteResource) *model.FavResource {
	if d == nil {
		return nil
	}
	return &model.FavResource{
		ID:        d.ID,
		FolderID:  d.FolderID,
		Title:     d.Title,
		Cover:     d.Cover,
		UpperMid:  d.UpperMid,
		UpperName: d.UpperName,
		Ctime:     d.Ctime,
		FavTime:   d.FavTime,
		BvID:      d.BvID,
		SortIndex: d.Index,
		UpdatedAt: timex.Now(),
	}
}

// Get 根据ID获取资源，不存在返回 (nil, nil)
func (r *favResourceRepository) Get(ctx context.Context, id int64) (*domain.FavoriteResource, error) {
	var m model.FavResource
	err := r.dao.Db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.toDomain(&m), nil
}

// PutBatch 逐条 upsert，失败不中断
func (r *favResourceRepository) PutBatch(ctx context.Context, items []*domain.FavoriteResource) error {
	failed := 0
	for _, d := range items {
		err := r.dao.Db.WithContext(ctx).
			Clauses(clause.OnConflict{UpdateAll: true}).
			Create(r.toModel(d)).Error
		if err != nil {
			failed++
		}
	}
	if failed > 0 {
		return code.ErrWriteFailed.WithDetails(fmt.Sprintf("%d of %d resources failed", failed, len(items)))
	}
	return nil
}

// All 返回全部资源
func (r *favResourceRepository) All(ctx context.Context) ([]*domain.FavoriteResource, error) {
	var rows []*model.FavResource
	if err := r.dao.Db.WithContext(ctx).Order("fav_time DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*domain.FavoriteResource, 0, len(rows))
	for _, m := range rows {
		out = append(out, r.toDomain(m))
	}
	return out, nil
}

// ListByFolder 返回某收藏夹内的全部资源，按收藏时间降序
func (r *favResourceRepository) ListByFolder(ctx context.Context, folderID int64) ([]*domain.FavoriteResource, error) {
	var rows []*model.FavResource
	err := r.dao.Db.WithContext(ctx).Where("folder_id = ?", folderID).Order("fav_time DESC").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]*domain.FavoriteResource, 0, len(rows))
	for _, m := range rows {
		out = append(out, r.toDomain(m))
	}
	return out, nil
}

// DeleteAbsentInFolder 删除收藏夹内远端已不存在的资源
func (r *favResourceRepository) DeleteAbsentInFolder(ctx context.Context, folderID int64, keepIDs []int64) (int64, error) {
	q := r.dao.Db.WithContext(ctx).Where("folder_id = ?", folderID)
	if len(keepIDs) > 0 {
		q = q.Where("id NOT IN ?", keepIDs)
	}
	result := q.Delete(&model.FavResource{})
	return result.RowsAffected, result.Error
}

// Count 返回资源总数
func (r *favResourceRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.dao.Db.WithContext(ctx).Model(&model.FavResource{}).Count(&count).Error
	return count, err
}
