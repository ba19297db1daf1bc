// Package dao 实现数据访问层
package dao

import (
	"time"

	"github.com/bilihist/bili-history-sync-service/global"
	"github.com/bilihist/bili-history-sync-service/pkg/code"
	"github.com/bilihist/bili-history-sync-service/pkg/fileurl"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// Dao 持有数据库连接，各仓库实现共享同一个 Dao
type Dao struct {
	Db *gorm.DB
}

// New 创建 Dao 实例
func New(db *gorm.DB) *Dao {
	return &Dao{Db: db}
}

// DB 返回底层连接
func (d *Dao) DB() *gorm.DB {
	return d.Db
}

// NewDBEngine 按配置打开本地 sqlite 库。
// 打开或连接池配置失败统一映射为 ErrStoreUnavailable。
func NewDBEngine(conf *global.DatabaseConfig) (*gorm.DB, error) {
	if conf.Type != "" && conf.Type != "sqlite" {
		return nil, code.ErrStoreUnavailable.WithDetails("unsupported database type " + conf.Type)
	}
	if err := fileurl.CreatePath(conf.Path, 0755); err != nil {
		return nil, code.ErrStoreUnavailable.WithDetails(err.Error())
	}

	db, err := gorm.Open(sqlite.Open(conf.Path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
		},
	})
	if err != nil {
		return nil, code.ErrStoreUnavailable.WithDetails(err.Error())
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, code.ErrStoreUnavailable.WithDetails(err.Error())
	}
	sqlDB.SetMaxIdleConns(conf.MaxIdleConns)
	sqlDB.SetMaxOpenConns(conf.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}
