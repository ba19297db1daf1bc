package dao

import (
	"context"

	"github.com/bilihist/bili-history-sync-service/internal/domain"
	"github.com/bilihist/bili-history-sync-service/internal/model"
	"github.com/bilihist/bili-history-sync-service/pkg/timex"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// settingRepository 实现 domain.SettingRepository 接口
type settingRepository struct {
	dao *Dao
}

// NewSettingRepository 创建 SettingRepository 实例
func NewSettingRepository(dao *Dao) domain.SettingRepository {
	return &settingRepository{dao: dao}
}

// Get 读取设置项，不存在返回空串
func (r *settingRepository) Get(ctx context.Context, key string) (string, error) {
	var m model.Setting
	err := r.dao.Db.WithContext(ctx).Where("key = ?", key).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return m.Value, nil
}

// Set 写入设置项，同键覆盖
func (r *settingRepository) Set(ctx context.Context, key, value string) error {
	m := model.Setting{Key: key, Value: value, UpdatedAt: timex.Now()}
	return r.dao.Db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&m).Error
}

// Delete 删除设置项
func (r *settingRepository) Delete(ctx context.Context, key string) error {
	return r.dao.Db.WithContext(ctx).Where("key = ?", key).Delete(&model.Setting{}).Error
}
