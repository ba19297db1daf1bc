// Package global holds process-wide configuration and the shared logger.
package global

import (
	"os"
	"path/filepath"

	"github.com/bilihist/bili-history-sync-service/pkg/webdav"

	"github.com/creasty/defaults"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Name 程序名称
var Name = "Bili History Sync Service"

type config struct {
	File     string         `yaml:"-"` // 配置文件路径，不序列化
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Bilibili BilibiliConfig `yaml:"bilibili"`
	Sync     SyncConfig     `yaml:"sync"`
	WebDAV   webdav.Config  `yaml:"webdav"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	// RunMode 运行模式 debug/release
	RunMode string `yaml:"run-mode" default:"release"`
}

// LogConfig 日志配置
type LogConfig struct {
	// Level 日志级别，参见 zapcore.ParseLevel
	Level string `yaml:"level" default:"info"`
	// File 日志文件路径
	File string `yaml:"file" default:"storage/logs/log.log"`
	// Production 是否启用 JSON 输出
	Production bool `yaml:"production" default:"true"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// Type 数据库类型，目前仅支持 sqlite
	Type string `yaml:"type" default:"sqlite"`
	// Path SQLite 数据库文件路径
	Path string `yaml:"path" default:"storage/database/db.sqlite3"`
	// MaxIdleConns 最大闲置连接数
	MaxIdleConns int `yaml:"max-idle-conns" default:"10"`
	// MaxOpenConns 最大打开连接数
	MaxOpenConns int `yaml:"max-open-conns" default:"100"`
}

// BilibiliConfig B 站会话凭证与分页配置
type BilibiliConfig struct {
	// Sessdata SESSDATA cookie，历史与收藏同步的必要凭证
	Sessdata string `yaml:"sessdata"`
	// BiliJct bili_jct cookie，仅镜像删除时需要
	BiliJct string `yaml:"bili-jct"`
	// PageSize 历史记录单页条数
	PageSize int `yaml:"page-size" default:"30"`
	// FavPageSize 收藏资源单页条数
	FavPageSize int `yaml:"fav-page-size" default:"20"`
}

// SyncConfig 同步调度配置
type SyncConfig struct {
	// HistoryInterval 历史同步间隔（分钟）
	HistoryInterval int `yaml:"history-interval" default:"1"`
	// FavoritesInterval 收藏夹同步间隔（分钟）
	FavoritesInterval int `yaml:"favorites-interval" default:"15"`
	// FavoritesEnabled 收藏夹功能开关
	FavoritesEnabled bool `yaml:"favorites-enabled" default:"true"`
	// MirrorDeletes 本地删除历史时是否同步删除远端
	MirrorDeletes bool `yaml:"mirror-deletes"`
}

// Config 全局配置实例
var Config *config

// ConfigLoad 加载配置文件并应用默认值
func ConfigLoad(path string) (*config, error) {
	c := new(config)
	if err := defaults.Set(c); err != nil {
		return nil, errors.Wrap(err, "config defaults")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "config read")
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, errors.Wrap(err, "config parse")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	c.File = abs
	Config = c
	return c, nil
}

// Save 将当前配置写回配置文件
func (c *config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "config marshal")
	}
	return os.WriteFile(c.File, data, 0644)
}
