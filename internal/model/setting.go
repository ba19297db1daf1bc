package model

import "github.com/bilihist/bili-history-sync-service/pkg/timex"

const TableNameSetting = "setting"

// Setting mapped from table <setting>
type Setting struct {
	Key       string     `gorm:"column:key;primaryKey" json:"key" form:"key"`
	Value     string     `gorm:"column:value" json:"value" form:"value"`
	UpdatedAt timex.Time `gorm:"column:updated_at;type:datetime;default:NULL;autoUpdateTime:false" json:"updatedAt" form:"updatedAt"`
}

// TableName Setting's table name
func (*Setting) TableName() string {
	return TableNameSetting
}
