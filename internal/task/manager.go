package task

import (
	"github.com/bilihist/bili-history-sync-service/internal/app"
	"github.com/bilihist/bili-history-sync-service/pkg/safe_close"

	"go.uber.org/zap"
)

// Manager 任务管理器，负责创建和管理所有任务
type Manager struct {
	scheduler *Scheduler
	app       *app.App
	logger    *zap.Logger
}

// NewManager 创建任务管理器
func NewManager(a *app.App, sc *safe_close.SafeClose) *Manager {
	return &Manager{
		scheduler: NewScheduler(a.Logger(), sc),
		app:       a,
		logger:    a.Logger(),
	}
}

// RegisterTasks 通过注册表实例化所有任务。
// 工厂返回 nil 任务表示该任务在当前配置下被禁用。
func (m *Manager) RegisterTasks() error {
	for _, factory := range GetFactories() {
		t, err := factory(m.app)
		if err != nil {
			m.logger.Warn("failed to create task", zap.Error(err))
			return err
		}
		if t == nil {
			continue
		}
		m.scheduler.AddTask(t)
	}
	return nil
}

// Start 启动所有已注册的任务
func (m *Manager) Start() {
	m.scheduler.Start()
}
