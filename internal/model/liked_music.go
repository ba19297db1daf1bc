package model

import "github.com/bilihist/bili-history-sync-service/pkg/timex"

const TableNameLikedMusic = "liked_music"

// LikedMusic mapped from table <liked_music>
type LikedMusic struct {
	Bvid      string     `gorm:"column:bvid;primaryKey" json:"bvid" form:"bvid"`
	Title     string     `gorm:"column:title;not null" json:"title" form:"title"`
	Author    string     `gorm:"column:author" json:"author" form:"author"`
	Mid       int64      `gorm:"column:mid" json:"mid" form:"mid"`
	Pic       string     `gorm:"column:pic" json:"pic" form:"pic"`
	AddedAt   int64      `gorm:"column:added_at;not null;index:idx_added_at,sort:desc" json:"addedAt" form:"addedAt"`
	CreatedAt timex.Time `gorm:"column:created_at;type:datetime;default:NULL;autoCreateTime:false" json:"createdAt" form:"createdAt"`
	UpdatedAt timex.Time `gorm:"column:updated_at;type:datetime;default:NULL;autoUpdateTime:false" json:"updatedAt" form:"updatedAt"`
}

// TableName LikedMusic's table name
func (*LikedMusic) TableName() string {
	return TableNameLikedMusic
}
