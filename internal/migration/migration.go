// Package migration 负责本地库结构的版本化演进。
// schema_version 表单行记录当前版本，Run 按序补齐缺失的迁移步骤，
// 每步在独立事务内执行，失败即回滚并停在上一个已完成版本。
package migration

import (
	"github.com/bilihist/bili-history-sync-service/internal/model"
	"github.com/bilihist/bili-history-sync-service/pkg/code"
	"github.com/bilihist/bili-history-sync-service/pkg/timex"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Step 一次库结构变更，Up 必须幂等
type Step struct {
	Version int
	Name    string
	Up      func(tx *gorm.DB) error
}

var steps = []Step{
	{
		Version: 1,
		Name:    "create history table, rename view_time to view_at",
		Up:      stepHistorySchema,
	},
	{
		Version: 2,
		Name:    "create liked music and favorites tables",
		Up:      stepMusicAndFavorites,
	},
}

// Latest 当前代码所要求的库结构版本
func Latest() int {
	return steps[len(steps)-1].Version
}

// Run 将库结构从当前版本迁移到 Latest。
// 库版本高于代码版本时拒绝打开，避免旧代码破坏新结构。
func Run(db *gorm.DB, logger *zap.Logger) error {
	if err := model.AutoMigrate(db, "SchemaVersion"); err != nil {
		return code.ErrStoreUnavailable.WithDetails(err.Error())
	}

	current, err := currentVersion(db)
	if err != nil {
		return code.ErrStoreUnavailable.WithDetails(err.Error())
	}
	if current > Latest() {
		logger.Error("store schema is newer than this build",
			zap.Int("store", current), zap.Int("supported", Latest()))
		return code.ErrStoreUnavailable.WithDetails("store schema version is newer than this build")
	}

	for _, step := range steps {
		if step.Version <= current {
			continue
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := step.Up(tx); err != nil {
				return err
			}
			return setVersion(tx, step.Version)
		})
		if err != nil {
			logger.Error("migration step failed",
				zap.Int("version", step.Version), zap.String("name", step.Name), zap.Error(err))
			return code.ErrStoreUnavailable.WithDetails(err.Error())
		}
		logger.Info("migration step applied",
			zap.Int("version", step.Version), zap.String("name", step.Name))
	}
	return nil
}

func currentVersion(db *gorm.DB) (int, error) {
	var row model.SchemaVersion
	err := db.First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return row.Version, nil
}

func setVersion(tx *gorm.DB, version int) error {
	row := model.SchemaVersion{ID: 1, Version: version, UpdatedAt: timex.Now()}
	return tx.Save(&row).Error
}

// stepHistorySchema 建表并处理早期版本遗留的 view_time 列。
// 旧列存在时重命名为 view_at 并重建降序索引，重复执行无副作用。
func stepHistorySchema(tx *gorm.DB) error {
	m := tx.Migrator()
	if m.HasTable(model.TableNameHistory) && m.HasColumn(&model.History{}, "view_time") {
		if err := m.RenameColumn(&model.History{}, "view_time", "view_at"); err != nil {
			return errors.Wrap(err, "rename view_time")
		}
		if m.HasIndex(&model.History{}, "idx_view_time") {
			if err := m.DropIndex(&model.History{}, "idx_view_time"); err != nil {
				return errors.Wrap(err, "drop idx_view_time")
			}
		}
	}
	if err := model.AutoMigrate(tx, "History"); err != nil {
		return err
	}
	return model.AutoMigrate(tx, "Setting")
}

// stepMusicAndFavorites 追加音乐与收藏相关表，不触碰既有数据
func stepMusicAndFavorites(tx *gorm.DB) error {
	for _, key := range []string{"LikedMusic", "FavFolder", "FavResource"} {
		if err := model.AutoMigrate(tx, key); err != nil {
			return err
		}
	}
	return nil
}
