package model

import "github.com/bilihist/bili-history-sync-service/pkg/timex"

const TableNameHistory = "history"

// History mapped from table <history>
type History struct {
	ID         int64      `gorm:"column:id;primaryKey" json:"id" form:"id"`
	Business   string     `gorm:"column:business;not null" json:"business" form:"business"`
	Bvid       string     `gorm:"column:bvid" json:"bvid" form:"bvid"`
	Cid        string     `gorm:"column:cid" json:"cid" form:"cid"`
	Title      string     `gorm:"column:title;not null" json:"title" form:"title"`
	Cover      string     `gorm:"column:cover" json:"cover" form:"cover"`
	TagName    string     `gorm:"column:tag_name" json:"tagName" form:"tagName"`
	URI        string     `gorm:"column:uri" json:"uri" form:"uri"`
	ViewAt     int64      `gorm:"column:view_at;not null;index:idx_view_at,sort:desc" json:"viewAt" form:"viewAt"`
	AuthorName string     `gorm:"column:author_name" json:"authorName" form:"authorName"`
	AuthorMid  int64      `gorm:"column:author_mid" json:"authorMid" form:"authorMid"`
	Progress   int64      `gorm:"column:progress" json:"progress" form:"progress"`
	Duration   int64      `gorm:"column:duration" json:"duration" form:"duration"`
	Uploaded   bool       `gorm:"column:uploaded;default:false" json:"uploaded" form:"uploaded"`
	Timestamp  int64      `gorm:"column:timestamp;not null" json:"timestamp" form:"timestamp"`
	CreatedAt  timex.Time `gorm:"column:created_at;type:datetime;default:NULL;autoCreateTime:false" json:"createdAt" form:"createdAt"`
	UpdatedAt  timex.Time `gorm:"column:updated_at;type:datetime;default:NULL;autoUpdateTime:false" json:"updatedAt" form:"updatedAt"`
}

// TableName History's table name
func (*History) TableName() string {
	return TableNameHistory
}
