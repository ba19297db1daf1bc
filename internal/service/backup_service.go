package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"strconv"
	"time"

	"github.com/bilihist/bili-history-sync-service/internal/domain"
	"github.com/bilihist/bili-history-sync-service/pkg/code"
	pkglogger "github.com/bilihist/bili-history-sync-service/pkg/logger"
	"github.com/bilihist/bili-history-sync-service/pkg/util"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// 备份目录内的文件名，与既有备份保持兼容
const (
	FileHistory      = "history.json"
	FileLikedMusic   = "likedMusic.json"
	FileFavFolders   = "favFolders.json"
	FileFavResources = "favResources.json"
	FileMeta         = "meta.json"
)

// ExportVersion 导出文件格式版本
const ExportVersion = "1.0"

// RemoteStore 备份服务所依赖的远端文件面
type RemoteStore interface {
	TestConnection() bool
	EnsureDirectory() error
	UploadFile(name string, content []byte) error
	DownloadFile(name string) ([]byte, bool, error)
}

// ExportEnvelope 导出文件结构
type ExportEnvelope struct {
	ExportTime   string                     `json:"exportTime"`
	Version      string                     `json:"version"`
	Device       string                     `json:"device,omitempty"`
	History      []*domain.History          `json:"history"`
	LikedMusic   []*domain.LikedMusic       `json:"likedMusic"`
	FavFolders   []*domain.FavoriteFolder   `json:"favFolders"`
	FavResources []*domain.FavoriteResource `json:"favResources"`
}

// backupMeta 备份目录的元信息文件
type backupMeta struct {
	Device     string `json:"device,omitempty"`
	BackupTime string `json:"backupTime"`
}

// RestoreResult 各集合的合并计数
type RestoreResult struct {
	History      domain.MergeResult `json:"history"`
	LikedMusic   domain.MergeResult `json:"likedMusic"`
	FavFolders   int                `json:"favFolders"`
	FavResources domain.MergeResult `json:"favResources"`
}

// BackupService 定义备份、恢复与导入导出接口
type BackupService interface {
	// BackupToWebDAV 上传四个集合的全量快照
	BackupToWebDAV(ctx context.Context) error

	// RestoreFromWebDAV 下载快照并与本地智能合并，远端缺失的文件跳过
	RestoreFromWebDAV(ctx context.Context) (*RestoreResult, error)

	// BidirectionalSync 先拉取合并，再把合并后的状态推回远端
	BidirectionalSync(ctx context.Context) (*RestoreResult, error)

	// ExportAll 导出带信封的 JSON 快照
	ExportAll(ctx context.Context) ([]byte, error)

	// ImportAll 导入 JSON 快照，兼容历史版本的裸数组格式
	ImportAll(ctx context.Context, data []byte) (*RestoreResult, error)

	// ExportHistoryCSV 导出观看历史为带 BOM 的 CSV
	ExportHistoryCSV(ctx context.Context) ([]byte, error)

	// ExportLikedMusicCSV 导出喜欢音乐为带 BOM 的 CSV
	ExportLikedMusicCSV(ctx context.Context) ([]byte, error)

	// NextBackupTime 按 cron 表达式计算下一次自动备份时间
	NextBackupTime(from time.Time) (time.Time, error)
}

// backupService 实现 BackupService 接口
type backupService struct {
	remote      RemoteStore
	historyRepo domain.HistoryRepository
	musicRepo   domain.LikedMusicRepository
	folderRepo  domain.FavFolderRepository
	resRepo     domain.FavResourceRepository
	settingRepo domain.SettingRepository
	merge       MergeService
	tracker     *StateTracker
	schedule    string
	logger      *zap.Logger
}

// NewBackupService 创建 BackupService 实例
func NewBackupService(
	remote RemoteStore,
	historyRepo domain.HistoryRepository,
	musicRepo domain.LikedMusicRepository,
	folderRepo domain.FavFolderRepository,
	resRepo domain.FavResourceRepository,
	settingRepo domain.SettingRepository,
	merge MergeService,
	tracker *StateTracker,
	schedule string,
	logger *zap.Logger,
) BackupService {
	return &backupService{
		remote:      remote,
		historyRepo: historyRepo,
		musicRepo:   musicRepo,
		folderRepo:  folderRepo,
		resRepo:     resRepo,
		settingRepo: settingRepo,
		merge:       merge,
		tracker:     tracker,
		schedule:    schedule,
		logger:      logger,
	}
}

// requireRemote 未配置 WebDAV 时 remote 为空
func (s *backupService) requireRemote() error {
	if s.remote == nil {
		return code.ErrNetworkFailure.WithDetails("webdav not configured")
	}
	return nil
}

// BackupToWebDAV 上传全量快照，四个文件独立上传，任一失败即返回
func (s *backupService) BackupToWebDAV(ctx context.Context) error {
	if err := s.requireRemote(); err != nil {
		return err
	}
	if err := s.tracker.TryStart(SyncTypeBackup); err != nil {
		return err
	}
	defer s.tracker.Finish(SyncTypeBackup)

	if !s.remote.TestConnection() {
		return code.ErrNetworkFailure.WithDetails("webdav server unreachable")
	}
	if err := s.remote.EnsureDirectory(); err != nil {
		return code.ErrNetworkFailure.WithDetails(err.Error())
	}

	start := time.Now()
	if err := s.uploadCollections(ctx); err != nil {
		return err
	}

	meta := backupMeta{
		Device:     util.GetMachineID(),
		BackupTime: time.Now().Format(time.RFC3339),
	}
	metaRaw, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	if err := s.remote.UploadFile(FileMeta, metaRaw); err != nil {
		return code.ErrNetworkFailure.WithDetails(err.Error())
	}

	if err := s.settingRepo.Set(ctx, domain.SettingLastBackupAt, strconv.FormatInt(time.Now().Unix(), 10)); err != nil {
		return err
	}
	s.logger.Info("webdav backup finished",
		zap.Duration(pkglogger.FieldDuration, time.Since(start)))
	return nil
}

func (s *backupService) uploadCollections(ctx context.Context) error {
	history, err := s.historyRepo.All(ctx)
	if err != nil {
		return err
	}
	music, err := s.musicRepo.All(ctx)
	if err != nil {
		return err
	}
	folders, err := s.folderRepo.All(ctx)
	if err != nil {
		return err
	}
	resources, err := s.resRepo.All(ctx)
	if err != nil {
		return err
	}

	files := []struct {
		name string
		data interface{}
	}{
		{FileHistory, history},
		{FileLikedMusic, music},
		{FileFavFolders, folders},
		{FileFavResources, resources},
	}
	for _, f := range files {
		raw, err := json.Marshal(f.data)
		if err != nil {
			return err
		}
		if err := s.remote.UploadFile(f.name, raw); err != nil {
			return code.ErrNetworkFailure.WithDetails(err.Error())
		}
		s.logger.Debug("uploaded backup file", zap.String(pkglogger.FieldFile, f.name))
	}
	return nil
}

// RestoreFromWebDAV 拉取快照并合并，远端没有的文件静默跳过
func (s *backupService) RestoreFromWebDAV(ctx context.Context) (*RestoreResult, error) {
	if err := s.requireRemote(); err != nil {
		return nil, err
	}
	if err := s.tracker.TryStart(SyncTypeBackup); err != nil {
		return nil, err
	}
	defer s.tracker.Finish(SyncTypeBackup)

	if !s.remote.TestConnection() {
		return nil, code.ErrNetworkFailure.WithDetails("webdav server unreachable")
	}
	return s.pullAndMerge(ctx)
}

func (s *backupService) pullAndMerge(ctx context.Context) (*RestoreResult, error) {
	result := &RestoreResult{}

	var history []*domain.History
	if found, err := s.downloadJSON(FileHistory, &history); err != nil {
		return nil, err
	} else if found {
		r, err := s.merge.MergeHistory(ctx, history)
		if err != nil {
			return nil, err
		}
		result.History = r
	}

	var music []*domain.LikedMusic
	if found, err := s.downloadJSON(FileLikedMusic, &music); err != nil {
		return nil, err
	} else if found {
		r, err := s.merge.MergeLikedMusic(ctx, music)
		if err != nil {
			return nil, err
		}
		result.LikedMusic = r
	}

	var folders []*domain.FavoriteFolder
	if found, err := s.downloadJSON(FileFavFolders, &folders); err != nil {
		return nil, err
	} else if found {
		n, err := s.merge.MergeFavFolders(ctx, folders)
		if err != nil {
			return nil, err
		}
		result.FavFolders = n
	}

	var resources []*domain.FavoriteResource
	if found, err := s.downloadJSON(FileFavResources, &resources); err != nil {
		return nil, err
	} else if found {
		r, err := s.merge.MergeFavResources(ctx, resources)
		if err != nil {
			return nil, err
		}
		result.FavResources = r
	}

	return result, nil
}

func (s *backupService) downloadJSON(name string, out interface{}) (bool, error) {
	raw, found, err := s.remote.DownloadFile(name)
	if err != nil {
		return false, code.ErrNetworkFailure.WithDetails(err.Error())
	}
	if !found {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, code.ErrBadFormat.WithDetails(name + ": " + err.Error())
	}
	return true, nil
}

// BidirectionalSync 先合并远端到本地，再上传合并后的状态
func (s *backupService) BidirectionalSync(ctx context.Context) (*RestoreResult, error) {
	if err := s.requireRemote(); err != nil {
		return nil, err
	}
	if err := s.tracker.TryStart(SyncTypeBackup); err != nil {
		return nil, err
	}
	defer s.tracker.Finish(SyncTypeBackup)

	if !s.remote.TestConnection() {
		return nil, code.ErrNetworkFailure.WithDetails("webdav server unreachable")
	}
	if err := s.remote.EnsureDirectory(); err != nil {
		return nil, code.ErrNetworkFailure.WithDetails(err.Error())
	}

	result, err := s.pullAndMerge(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.uploadCollections(ctx); err != nil {
		return result, err
	}
	s.logger.Info("webdav bidirectional sync finished",
		zap.Int("historyMerged", result.History.Merged),
		zap.Int("historySkipped", result.History.Skipped))
	return result, nil
}

// ExportAll 导出信封格式快照
func (s *backupService) ExportAll(ctx context.Context) ([]byte, error) {
	history, err := s.historyRepo.All(ctx)
	if err != nil {
		return nil, err
	}
	music, err := s.musicRepo.All(ctx)
	if err != nil {
		return nil, err
	}
	folders, err := s.folderRepo.All(ctx)
	if err != nil {
		return nil, err
	}
	resources, err := s.resRepo.All(ctx)
	if err != nil {
		return nil, err
	}

	env := ExportEnvelope{
		ExportTime:   time.Now().Format(time.RFC3339),
		Version:      ExportVersion,
		Device:       util.GetMachineID(),
		History:      history,
		LikedMusic:   music,
		FavFolders:   folders,
		FavResources: resources,
	}
	return json.MarshalIndent(env, "", "  ")
}

// ImportAll 导入快照。
// 新版是信封对象，旧版是单集合裸数组，按首条记录的字段形状区分
// 历史（view_at）与音乐（bvid + added_at）。
func (s *backupService) ImportAll(ctx context.Context, data []byte) (*RestoreResult, error) {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, code.ErrBadFormat.WithDetails("empty file")
	}

	if trimmed[0] == '[' {
		return s.importLegacyArray(ctx, trimmed)
	}

	var env ExportEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, code.ErrBadFormat.WithDetails(err.Error())
	}
	// 四个集合键全部缺失说明不是导出信封，空集合反序列化后是非 nil 切片
	if env.History == nil && env.LikedMusic == nil && env.FavFolders == nil && env.FavResources == nil {
		return nil, code.ErrBadFormat.WithDetails("object carries no known collection")
	}

	result := &RestoreResult{}
	r, err := s.merge.MergeHistory(ctx, env.History)
	if err != nil {
		return result, err
	}
	result.History = r

	rm, err := s.merge.MergeLikedMusic(ctx, env.LikedMusic)
	if err != nil {
		return result, err
	}
	result.LikedMusic = rm

	n, err := s.merge.MergeFavFolders(ctx, env.FavFolders)
	if err != nil {
		return result, err
	}
	result.FavFolders = n

	rr, err := s.merge.MergeFavResources(ctx, env.FavResources)
	if err != nil {
		return result, err
	}
	result.FavResources = rr

	return result, nil
}

func (s *backupService) importLegacyArray(ctx context.Context, data []byte) (*RestoreResult, error) {
	var probe []map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, code.ErrBadFormat.WithDetails(err.Error())
	}
	result := &RestoreResult{}
	if len(probe) == 0 {
		return result, nil
	}

	first := probe[0]
	_, hasViewAt := first["view_at"]
	if !hasViewAt {
		_, hasViewAt = first["viewAt"]
	}
	_, hasBvid := first["bvid"]
	_, hasAddedAt := first["added_at"]
	if !hasAddedAt {
		_, hasAddedAt = first["addedAt"]
	}

	switch {
	case hasViewAt:
		var history []*domain.History
		if err := json.Unmarshal(data, &history); err != nil {
			return nil, code.ErrBadFormat.WithDetails(err.Error())
		}
		r, err := s.merge.MergeHistory(ctx, history)
		if err != nil {
			return result, err
		}
		result.History = r
	case hasBvid && hasAddedAt:
		var music []*domain.LikedMusic
		if err := json.Unmarshal(data, &music); err != nil {
			return nil, code.ErrBadFormat.WithDetails(err.Error())
		}
		r, err := s.merge.MergeLikedMusic(ctx, music)
		if err != nil {
			return result, err
		}
		result.LikedMusic = r
	default:
		return nil, code.ErrBadFormat.WithDetails("array shape matches no known collection")
	}
	return result, nil
}

// utf8BOM 让 Excel 正确识别中文
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ExportHistoryCSV 导出观看历史 CSV
func (s *backupService) ExportHistoryCSV(ctx context.Context) ([]byte, error) {
	history, err := s.historyRepo.All(ctx)
	if err != nil {
		return nil, err
	}

	buf := bytes.NewBuffer(utf8BOM)
	w := csv.NewWriter(buf)
	if err := w.Write([]string{"id", "business", "bvid", "title", "author", "view_at", "progress", "duration", "uri"}); err != nil {
		return nil, err
	}
	for _, h := range history {
		progress := strconv.FormatInt(h.Progress, 10)
		if h.Progress == domain.ProgressWatched {
			progress = "已看完"
		}
		row := []string{
			strconv.FormatInt(h.ID, 10),
			string(h.Business),
			h.Bvid,
			h.Title,
			h.AuthorName,
			time.Unix(h.ViewAt, 0).Format("2006-01-02 15:04:05"),
			progress,
			strconv.FormatInt(h.Duration, 10),
			h.URI,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportLikedMusicCSV 导出喜欢音乐 CSV
func (s *backupService) ExportLikedMusicCSV(ctx context.Context) ([]byte, error) {
	music, err := s.musicRepo.All(ctx)
	if err != nil {
		return nil, err
	}

	buf := bytes.NewBuffer(utf8BOM)
	w := csv.NewWriter(buf)
	if err := w.Write([]string{"bvid", "title", "author", "added_at"}); err != nil {
		return nil, err
	}
	for _, m := range music {
		row := []string{
			m.Bvid,
			m.Title,
			m.Author,
			time.UnixMilli(m.AddedAt).Format("2006-01-02 15:04:05"),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// NextBackupTime 解析 cron 表达式求下一次触发时间
func (s *backupService) NextBackupTime(from time.Time) (time.Time, error) {
	sched, err := cron.ParseStandard(s.schedule)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(from), nil
}

var _ BackupService = (*backupService)(nil)
