package bilibili

// response 是开放接口的统一外壳，code 非零表示业务拒绝
type response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Cursor 历史翻页游标，原样透传给下一次请求
type Cursor struct {
	Max    int64 `json:"max"`
	ViewAt int64 `json:"view_at"`
}

// IsZero 判断是否为初始游标
func (c Cursor) IsZero() bool {
	return c.Max == 0 && c.ViewAt == 0
}

// historyMeta 条目的业务定位信息
type historyMeta struct {
	Oid      int64  `json:"oid"`
	Business string `json:"business"`
	Bvid     string `json:"bvid"`
	Cid      int64  `json:"cid"`
	Part     string `json:"part"`
	Dt       int    `json:"dt"`
}

// HistoryItem 历史接口返回的单条记录
type HistoryItem struct {
	History    historyMeta `json:"history"`
	Title      string      `json:"title"`
	Cover      string      `json:"cover"`
	Covers     []string    `json:"covers"`
	URI        string      `json:"uri"`
	ViewAt     int64       `json:"view_at"`
	TagName    string      `json:"tag_name"`
	AuthorName string      `json:"author_name"`
	AuthorMid  int64       `json:"author_mid"`
	Progress   int64       `json:"progress"`
	Duration   int64       `json:"duration"`
}

// ID 条目主键，与本地存储主键一致
func (i *HistoryItem) ID() int64 {
	return i.History.Oid
}

// Business 条目内容类型
func (i *HistoryItem) Business() string {
	return i.History.Business
}

// CoverURL 专栏类条目封面在 covers 数组里，其余在 cover 字段
func (i *HistoryItem) CoverURL() string {
	if i.Cover != "" {
		return i.Cover
	}
	if len(i.Covers) > 0 {
		return i.Covers[0]
	}
	return ""
}

// HistoryPage 一页历史与下一页游标
type HistoryPage struct {
	Cursor Cursor        `json:"cursor"`
	List   []HistoryItem `json:"list"`
}

type historyPageResponse struct {
	response
	Data HistoryPage `json:"data"`
}

type navResponse struct {
	response
	Data struct {
		IsLogin bool  `json:"isLogin"`
		Mid     int64 `json:"mid"`
	} `json:"data"`
}

// FolderInfo 收藏夹元信息
type FolderInfo struct {
	ID         int64  `json:"id"`
	Fid        int64  `json:"fid"`
	Mid        int64  `json:"mid"`
	Title      string `json:"title"`
	MediaCount int64  `json:"media_count"`
}

type folderListResponse struct {
	response
	Data struct {
		Count int64        `json:"count"`
		List  []FolderInfo `json:"list"`
	} `json:"data"`
}

// MediaUpper 资源作者信息
type MediaUpper struct {
	Mid  int64  `json:"mid"`
	Name string `json:"name"`
	Face string `json:"face"`
}

// MediaInfo 收藏夹内的单个资源
type MediaInfo struct {
	ID      int64      `json:"id"`
	Title   string     `json:"title"`
	Cover   string     `json:"cover"`
	Upper   MediaUpper `json:"upper"`
	Ctime   int64      `json:"ctime"`
	FavTime int64      `json:"fav_time"`
	BvID    string     `json:"bvid"`
}

type mediaListResponse struct {
	response
	Data struct {
		Medias  []MediaInfo `json:"medias"`
		HasMore bool        `json:"has_more"`
	} `json:"data"`
}
