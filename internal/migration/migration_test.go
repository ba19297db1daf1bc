package migration

import (
	"testing"

	"github.com/bilihist/bili-history-sync-service/internal/model"
	"github.com/bilihist/bili-history-sync-service/pkg/code"

	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db
}

func TestRun_FreshStore(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, Run(db, zap.NewNop()))

	m := db.Migrator()
	for _, table := range []string{
		model.TableNameHistory,
		model.TableNameLikedMusic,
		model.TableNameFavFolder,
		model.TableNameFavResource,
		model.TableNameSetting,
	} {
		require.True(t, m.HasTable(table), "missing table %s", table)
	}

	var row model.SchemaVersion
	require.NoError(t, db.First(&row).Error)
	require.Equal(t, Latest(), row.Version)
}

func TestRun_Idempotent(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, Run(db, zap.NewNop()))
	require.NoError(t, Run(db, zap.NewNop()))

	var count int64
	require.NoError(t, db.Model(&model.SchemaVersion{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestRun_RenamesLegacyColumn(t *testing.T) {
	db := newTestDB(t)

	// 模拟第 0 版遗留结构，排序列还叫 view_time
	require.NoError(t, db.Exec(
		`CREATE TABLE history (id INTEGER PRIMARY KEY, business TEXT NOT NULL, title TEXT NOT NULL, view_time INTEGER NOT NULL, timestamp INTEGER NOT NULL)`,
	).Error)
	require.NoError(t, db.Exec(
		`INSERT INTO history (id, business, title, view_time, timestamp) VALUES (7, 'archive', 'legacy', 1700000000, 1700000000000)`,
	).Error)

	require.NoError(t, Run(db, zap.NewNop()))

	m := db.Migrator()
	require.False(t, m.HasColumn(&model.History{}, "view_time"))
	require.True(t, m.HasColumn(&model.History{}, "view_at"))

	var got model.History
	require.NoError(t, db.First(&got, 7).Error)
	require.Equal(t, int64(1700000000), got.ViewAt)
	require.Equal(t, "legacy", got.Title)
}

func TestRun_RefusesNewerStore(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, model.AutoMigrate(db, "SchemaVersion"))
	require.NoError(t, db.Create(&model.SchemaVersion{ID: 1, Version: Latest() + 5}).Error)

	err := Run(db, zap.NewNop())
	require.Error(t, err)
	require.True(t, errors.Is(err, code.ErrStoreUnavailable))
}
