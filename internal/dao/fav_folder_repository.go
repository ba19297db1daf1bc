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

// favFolderRepository 实现 domain.FavFolderRepository 接口
type favFolderRepository struct {
	dao *Dao
}

// NewFavFolderRepository 创建 FavFolderRepository 实例
func NewFavFolderRepository(dao *Dao) domain.FavFolderRepository {
	return &favFolderRepository{dao: dao}
}

func (r *favFolderRepository) toDomain(m *model.FavFolder) *domain.FavoriteFolder {
	if m == nil {
		return nil
	}
	return &domain.FavoriteFolder{
		ID:         m.ID,
		Mid:        m.Mid,
		Title:      m.Title,
		MediaCount: m.MediaCount,
		Index:      m.SortIndex,
	}
}

func (r *favFolderRepository) toModel(d *domain.FavoriteFolder) *model.FavFolder {
	if d == nil {
		return nil
	}
	return &model.FavFolder{
		ID:         d.ID,
		Mid:        d.Mid,
		Title:      d.Title,
		MediaCount: d.MediaCount,
		SortIndex:  d.Index,
		UpdatedAt:  timex.Now(),
	}
}

// Get 根据ID获取收藏夹，不存在返回 (nil, nil)
func (r *favFolderRepository) Get(ctx context.Context, id int64) (*domain.FavoriteFolder, error) {
	var m model.FavFolder
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
func (r *favFolderRepository) PutBatch(ctx context.Context, items []*domain.FavoriteFolder) error {
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
		return code.ErrWriteFailed.WithDetails(fmt.Sprintf("%d of %d folders failed", failed, len(items)))
	}
	return nil
}

// All 返回全部收藏夹，按展示顺序
func (r *favFolderRepository) All(ctx context.Context) ([]*domain.FavoriteFolder, error) {
	var rows []*model.FavFolder
	if err := r.dao.Db.WithContext(ctx).Order("sort_index ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*domain.FavoriteFolder, 0, len(rows))
	for _, m := range rows {
		out = append(out, r.toDomain(m))
	}
	return out, nil
}
