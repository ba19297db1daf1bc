package model

import "github.com/bilihist/bili-history-sync-service/pkg/timex"

const TableNameFavFolder = "fav_folder"

// FavFolder mapped from table <fav_folder>
type FavFolder struct {
	ID         int64      `gorm:"column:id;primaryKey" json:"id" form:"id"`
	Mid        int64      `gorm:"column:mid;not null;index:idx_mid" json:"mid" form:"mid"`
	Title      string     `gorm:"column:title;not null" json:"title" form:"title"`
	MediaCount int64      `gorm:"column:media_count" json:"mediaCount" form:"mediaCount"`
	SortIndex  int        `gorm:"column:sort_index" json:"sortIndex" form:"sortIndex"`
	CreatedAt  timex.Time `gorm:"column:created_at;type:datetime;default:NULL;autoCreateTime:false" json:"createdAt" form:"createdAt"`
	UpdatedAt  timex.Time `gorm:"column:updated_at;type:datetime;default:NULL;autoUpdateTime:false" json:"updatedAt" form:"updatedAt"`
}

// TableName FavFolder's table name
func (*FavFolder) TableName() string {
	return TableNameFavFolder
}
