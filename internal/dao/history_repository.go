package dao

import (
	"context"
	"fmt"
	"time"

	"github.com/bilihist/bili-history-sync-service/internal/domain"
	"github.com/bilihist/bili-history-sync-service/internal/model"
	"github.com/bilihist/bili-history-sync-service/pkg/code"
	"github.com/bilihist/bili-history-sync-service/pkg/timex"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// historyRepository 实现 domain.HistoryRepository 接口
type historyRepository struct {
	dao *Dao
}

// NewHistoryRepository 创建 HistoryRepository 实例
func NewHistoryRepository(dao *Dao) domain.HistoryRepository {
	return &historyRepository{dao: dao}
}

// toDomain 将数据库模型转换为领域模型
func (r *historyRepository) toDomain(m *model.History) *domain.History {
	if m == nil {
		return nil
	}
	return &domain.History{
		ID:         m.ID,
		Business:   domain.Business(m.Business),
		Bvid:       m.Bvid,
		Cid:        m.Cid,
		Title:      m.Title,
		Cover:      m.Cover,
		TagName:    m.TagName,
		URI:        m.URI,
		ViewAt:     m.ViewAt,
		AuthorName: m.AuthorName,
		AuthorMid:  m.AuthorMid,
		Progress:   m.Progress,
		Duration:   m.Duration,
		Uploaded:   m.Uploaded,
		Timestamp:  m.Timestamp,
	}
}

// toModel 将领域模型转换为数据库模型
func (r *historyRepository) toModel(h *domain.History) *model.History {
	if h == nil {
		return nil
	}
	return &model.History{
		ID:         h.ID,
		Business:   string(h.Business),
		Bvid:       h.Bvid,
		Cid:        h.Cid,
		Title:      h.Title,
		Cover:      h.Cover,
		TagName:    h.TagName,
		URI:        h.URI,
		ViewAt:     h.ViewAt,
		AuthorName: h.AuthorName,
		AuthorMid:  h.AuthorMid,
		Progress:   h.Progress,
		Duration:   h.Duration,
		Uploaded:   h.Uploaded,
		Timestamp:  h.Timestamp,
		UpdatedAt:  timex.Now(),
	}
}

// Get 根据ID获取记录，不存在返回 (nil, nil)
func (r *historyRepository) Get(ctx context.Context, id int64) (*domain.History, error) {
	var m model.History
	err := r.dao.Db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.toDomain(&m), nil
}

// Exists 仅检查主键存在性
func (r *historyRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	err := r.dao.Db.WithContext(ctx).Model(&model.History{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Put 幂等写入单条记录，同主键覆盖
func (r *historyRepository) Put(ctx context.Context, h *domain.History) error {
	m := r.toModel(h)
	return r.dao.Db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(m).Error
}

// PutBatch 逐条写入，单条失败不中断其余记录。
// 任何一条失败时返回 ErrWriteFailed，已写入的记录保留。
func (r *historyRepository) PutBatch(ctx context.Context, items []*domain.History) error {
	failed := 0
	for _, h := range items {
		if err := r.Put(ctx, h); err != nil {
			failed++
		}
	}
	if failed > 0 {
		return code.ErrWriteFailed.WithDetails(fmt.Sprintf("%d of %d records failed", failed, len(items)))
	}
	return nil
}

// Delete 删除单条记录，不存在时静默成功
func (r *historyRepository) Delete(ctx context.Context, id int64) error {
	return r.dao.Db.WithContext(ctx).Where("id = ?", id).Delete(&model.History{}).Error
}

// Clear 清空全部历史记录
func (r *historyRepository) Clear(ctx context.Context) error {
	return r.dao.Db.WithContext(ctx).Where("1 = 1").Delete(&model.History{}).Error
}

// QueryPage 按 view_at 降序分页。
// beforeViewAt 是排他上界游标，0 表示从最新记录开始。
// 多取一条判断是否还有后续页，过滤条件直接下推到查询。
func (r *historyRepository) QueryPage(ctx context.Context, beforeViewAt int64, pageSize int, filter domain.HistoryFilter) ([]*domain.History, bool, error) {
	q := r.dao.Db.WithContext(ctx).Model(&model.History{})
	if beforeViewAt > 0 {
		q = q.Where("view_at < ?", beforeViewAt)
	}
	if filter.Keyword != "" {
		q = q.Where("title LIKE ?", "%"+filter.Keyword+"%")
	}
	if filter.AuthorKeyword != "" {
		q = q.Where("author_name LIKE ?", "%"+filter.AuthorKeyword+"%")
	}
	if filter.Date != "" {
		day, err := time.ParseInLocation("2006-01-02", filter.Date, time.Local)
		if err != nil {
			return nil, false, errors.Wrap(err, "parse date filter")
		}
		q = q.Where("view_at >= ? AND view_at < ?", day.Unix(), day.AddDate(0, 0, 1).Unix())
	}

	var rows []*model.History
	if err := q.Order("view_at DESC").Limit(pageSize + 1).Find(&rows).Error; err != nil {
		return nil, false, err
	}

	hasMore := len(rows) > pageSize
	if hasMore {
		rows = rows[:pageSize]
	}
	out := make([]*domain.History, 0, len(rows))
	for _, m := range rows {
		out = append(out, r.toDomain(m))
	}
	return out, hasMore, nil
}

// All 返回全部记录，按 view_at 降序，用于备份导出
func (r *historyRepository) All(ctx context.Context) ([]*domain.History, error) {
	var rows []*model.History
	if err := r.dao.Db.WithContext(ctx).Order("view_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*domain.History, 0, len(rows))
	for _, m := range rows {
		out = append(out, r.toDomain(m))
	}
	return out, nil
}

// Count 返回记录总数
func (r *historyRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.dao.Db.WithContext(ctx).Model(&model.History{}).Count(&count).Error
	return count, err
}
