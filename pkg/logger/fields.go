package logger

// 统一的日志字段命名常量
// 用于确保整个项目中日志字段命名的一致性，便于日志查询和分析
const (
	// FieldAction 操作类型字段
	FieldAction = "action"

	// FieldSyncType 同步类型字段（history/favorites）
	FieldSyncType = "syncType"

	// FieldFolder 收藏夹标题字段
	FieldFolder = "folder"

	// FieldFolderID 收藏夹 ID 字段
	FieldFolderID = "folderId"

	// FieldPage 分页页码字段
	FieldPage = "page"

	// FieldCount 记录数量字段
	FieldCount = "count"

	// FieldDuration 耗时字段
	FieldDuration = "duration"

	// FieldError 错误信息字段
	FieldError = "error"

	// FieldFile 文件名字段
	FieldFile = "file"

	// FieldMid 用户 mid 字段
	FieldMid = "mid"
)
