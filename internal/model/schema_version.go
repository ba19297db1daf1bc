package model

import "github.com/bilihist/bili-history-sync-service/pkg/timex"

const TableNameSchemaVersion = "schema_version"

// SchemaVersion mapped from table <schema_version>，单行记录当前库结构版本
type SchemaVersion struct {
	ID        int64      `gorm:"column:id;primaryKey" json:"id" form:"id"`
	Version   int        `gorm:"column:version;not null" json:"version" form:"version"`
	UpdatedAt timex.Time `gorm:"column:updated_at;type:datetime;default:NULL;autoUpdateTime:false" json:"updatedAt" form:"updatedAt"`
}

// TableName SchemaVersion's table name
func (*SchemaVersion) TableName() string {
	return TableNameSchemaVersion
}
