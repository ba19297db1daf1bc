package app

// 构建时通过 -ldflags 注入
var (
	Version   = "dev"
	GitTag    = "unknown"
	BuildTime = "unknown"
)
