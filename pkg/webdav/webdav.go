// Package webdav wraps gowebdav with the small file-level surface the backup
// service needs: connectivity test, base directory creation and JSON blob
// upload/download under a configurable base path.
package webdav

import (
	"os"
	"sync"

	"github.com/bilihist/bili-history-sync-service/pkg/fileurl"

	"github.com/pkg/errors"
	"github.com/studio-b12/gowebdav"
)

// Config 结构体用于存储 WebDAV 连接信息。
type Config struct {
	Endpoint string `yaml:"endpoint"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	BasePath string `yaml:"base-path" default:"/bilibili-history/"`
	// AutoBackupEnabled 是否启用自动备份任务
	AutoBackupEnabled bool `yaml:"auto-backup-enabled"`
	// AutoBackupSchedule 自动备份 cron 表达式（分 时 日 月 周）
	AutoBackupSchedule string `yaml:"auto-backup-schedule" default:"*/30 * * * *"`
}

// IsConfigured 判断是否填写了可用的服务器信息
func (c *Config) IsConfigured() bool {
	return c.Endpoint != ""
}

// WebDAV 结构体表示 WebDAV 客户端。
type WebDAV struct {
	Client *gowebdav.Client
	Config *Config
}

var (
	clients   = make(map[string]*WebDAV)
	clientsMu sync.Mutex
)

// NewClient 创建一个新的 WebDAV 客户端实例，按连接信息缓存复用。
func NewClient(conf *Config) (*WebDAV, error) {
	if !conf.IsConfigured() {
		return nil, errors.New("webdav: endpoint not configured")
	}

	key := conf.Endpoint + conf.BasePath + conf.User

	clientsMu.Lock()
	defer clientsMu.Unlock()
	if w, ok := clients[key]; ok {
		return w, nil
	}

	c := gowebdav.NewClient(conf.Endpoint, conf.User, conf.Password)
	w := &WebDAV{Client: c, Config: conf}
	clients[key] = w
	return w, nil
}

func (w *WebDAV) basePath() string {
	p := fileurl.PathPrefixCheckAdd(w.Config.BasePath, "/")
	return fileurl.PathSuffixCheckAdd(p, "/")
}

// TestConnection 测试服务器可达性与凭证。
// 基础目录尚不存在（404）也视为可达，后续 EnsureDirectory 会创建。
func (w *WebDAV) TestConnection() bool {
	_, err := w.Client.Stat(w.basePath())
	if err == nil {
		return true
	}
	return gowebdav.IsErrNotFound(err)
}

// EnsureDirectory 幂等创建备份目录，目录已存在视为成功。
func (w *WebDAV) EnsureDirectory() error {
	err := w.Client.MkdirAll(w.basePath(), 0755)
	if err != nil && !gowebdav.IsErrCode(err, 405) {
		return errors.Wrap(err, "webdav mkcol")
	}
	return nil
}

// UploadFile 将内容写入备份目录下的文件。
func (w *WebDAV) UploadFile(name string, content []byte) error {
	if err := w.Client.Write(w.basePath()+name, content, os.ModePerm); err != nil {
		return errors.Wrap(err, "webdav put "+name)
	}
	return nil
}

// DownloadFile 读取备份目录下的文件。
// 文件不存在返回 found=false 且无错误，与传输失败区分。
func (w *WebDAV) DownloadFile(name string) ([]byte, bool, error) {
	content, err := w.Client.Read(w.basePath() + name)
	if err != nil {
		if gowebdav.IsErrNotFound(err) {
			return nil, false, nil
		}
		return nil, false, errors.Wrap(err, "webdav get "+name)
	}
	return content, true, nil
}

// Delete 删除备份目录下的文件。
func (w *WebDAV) Delete(name string) error {
	return w.Client.Remove(w.basePath() + name)
}
