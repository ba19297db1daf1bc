package cmd

import (
	"os"

	"github.com/bilihist/bili-history-sync-service/global"
	internalApp "github.com/bilihist/bili-history-sync-service/internal/app"
	"github.com/bilihist/bili-history-sync-service/pkg/fileurl"

	"go.uber.org/zap"
)

// resolveConfigPath 按约定顺序查找配置文件，找不到时写出内嵌默认配置
func resolveConfigPath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	for _, candidate := range []string{
		"config/config-dev.yaml",
		"config.yaml",
		"config/config.yaml",
	} {
		if fileurl.IsExist(candidate) {
			return candidate, nil
		}
	}

	bootstrapLogger.Warn("config file not found, creating default config")
	path = "config/config.yaml"
	if err := fileurl.CreatePath(path, os.ModePerm); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(configDefault), 0644); err != nil {
		return "", err
	}
	bootstrapLogger.Info("config file auto created", zap.String("path", path))
	return path, nil
}

// setupApp 加载配置、初始化日志与应用容器，供各个一次性命令复用
func setupApp(configPath string) (*internalApp.App, *zap.Logger, error) {
	path, err := resolveConfigPath(configPath)
	if err != nil {
		return nil, nil, err
	}
	if _, err := global.ConfigLoad(path); err != nil {
		return nil, nil, err
	}

	logger, err := global.NewLogger(global.Config.Log)
	if err != nil {
		return nil, nil, err
	}
	global.Logger = logger

	a, err := internalApp.NewApp(logger)
	if err != nil {
		return nil, nil, err
	}
	return a, logger, nil
}
