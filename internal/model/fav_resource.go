package model

import "github.com/bilihist/bili-history-sync-service/pkg/timex"

const TableNameFavResource = "fav_resource"

// FavResource mapped from table <fav_resource>
type FavResource struct {
	ID        int64      `gorm:"column:id;primaryKey" json:"id" form:"id"`
	FolderID  int64      `gorm:"column:folder_id;not null;index:idx_folder" json:"folderId" form:"folderId"`
	Title     string     `gorm:"column:title;not null" json:"title" form:"title"`
	Cover     string     `gorm:"column:cover" json:"cover" form:"cover"`
	UpperMid  int64      `gorm:"column:upper_mid" json:"upperMid" form:"upperMid"`
	UpperName string     `gorm:"column:upper_name" json:"upperName" form:"upperName"`
	Ctime     int64      `gorm:"column:ctime" json:"ctime" form:"ctime"`
	FavTime   int64      `gorm:"column:fav_time;not null;index:idx_fav_time,sort:desc" json:"favTime" form:"favTime"`
	BvID      string     `gorm:"column:bv_id" json:"bvId" form:"bvId"`
	SortIndex int        `gorm:"column:sort_index" json:"sortIndex" form:"sortIndex"`
	CreatedAt timex.Time `gorm:"column:created_at;type:datetime;default:NULL;autoCreateTime:false" json:"createdAt" form:"createdAt"`
	UpdatedAt timex.Time `gorm:"column:updated_at;type:datetime;default:NULL;autoUpdateTime:false" json:"updatedAt" form:"updatedAt"`
}

// TableName FavResource's table name
func (*FavResource) TableName() string {
	return TableNameFavResource
}
