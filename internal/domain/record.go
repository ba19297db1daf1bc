// Package domain 定义领域模型和接口
package domain

// Business 定义历史记录的内容类型
type Business string

const (
	BusinessArchive     Business = "archive"
	BusinessPgc         Business = "pgc"
	BusinessArticle     Business = "article"
	BusinessArticleList Business = "article-list"
	BusinessLive        Business = "live"
	BusinessCheese      Business = "cheese"
)

// InvalidatedTitle 远端将失效内容的标题统一替换为该值
// 合并时据此保留本地仍然持有的原始元数据
const InvalidatedTitle = "已失效视频"

// ProgressWatched progress 的哨兵值，表示已看完
const ProgressWatched = -1

// History 观看历史领域模型
// ViewAt 是唯一的排序与分页游标，Timestamp 是本地写入时间，用于合并比较
type History struct {
	ID         int64    `json:"id"`
	Business   Business `json:"business"`
	Bvid       string   `json:"bvid"`
	Cid        string   `json:"cid"`
	Title      string   `json:"title"`
	Cover      string   `json:"cover"`
	TagName    string   `json:"tag_name"`
	URI        string   `json:"uri"`
	ViewAt     int64    `json:"view_at"`
	AuthorName string   `json:"author_name"`
	AuthorMid  int64    `json:"author_mid"`
	Progress   int64    `json:"progress"`
	Duration   int64    `json:"duration"`
	Uploaded   bool     `json:"uploaded"`
	Timestamp  int64    `json:"timestamp"`
}

// LikedMusic 喜欢的音乐领域模型，以 bvid 唯一。
// AddedAt 是毫秒时间戳，排序键与合并比较键。
type LikedMusic struct {
	Bvid    string `json:"bvid"`
	Title   string `json:"title"`
	Author  string `json:"author"`
	Mid     int64  `json:"mid"`
	Pic     string `json:"pic"`
	AddedAt int64  `json:"added_at"`
}

// FavoriteFolder 收藏夹镜像，每次同步整体 upsert
type FavoriteFolder struct {
	ID         int64  `json:"id"`
	Mid        int64  `json:"mid"`
	Title      string `json:"title"`
	MediaCount int64  `json:"media_count"`
	Index      int    `json:"index"`
}

// FavoriteResource 收藏夹内的单个资源
type FavoriteResource struct {
	ID        int64  `json:"id"`
	FolderID  int64  `json:"folder_id"`
	Title     string `json:"title"`
	Cover     string `json:"cover"`
	UpperMid  int64  `json:"upper_mid"`
	UpperName string `json:"upper_name"`
	Ctime     int64  `json:"ctime"`
	FavTime   int64  `json:"fav_time"`
	BvID      string `json:"bvid"`
	Index     int    `json:"index"`
}

// IsInvalidated 判断资源是否为远端失效占位
func (r *FavoriteResource) IsInvalidated() bool {
	return r.Title == InvalidatedTitle
}

// HistoryFilter 历史查询过滤条件，空字段不参与过滤
type HistoryFilter struct {
	// Keyword 标题关键字，大小写不敏感
	Keyword string
	// AuthorKeyword 作者关键字，大小写不敏感
	AuthorKeyword string
	// Date 观看日期，格式 2006-01-02，按本地时区匹配当天
	Date string
}

// MergeResult 合并计数，merged 为插入或覆盖，skipped 为本地更新而保留
type MergeResult struct {
	Merged  int `json:"merged"`
	Skipped int `json:"skipped"`
}

// Add 累加另一组合并计数
func (r *MergeResult) Add(other MergeResult) {
	r.Merged += other.Merged
	r.Skipped += other.Skipped
}
