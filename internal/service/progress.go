// Package service 实现业务逻辑层
package service

import (
	"sync"

	"github.com/bilihist/bili-history-sync-service/pkg/code"
)

// SyncType 标识一类互斥的同步流程
type SyncType string

const (
	SyncTypeHistory   SyncType = "history"
	SyncTypeFavorites SyncType = "favorites"
	SyncTypeBackup    SyncType = "backup"
)

// Progress 同步进度快照
type Progress struct {
	Current int    `json:"current"`
	Total   int    `json:"total"`
	Message string `json:"message"`
}

// StateTracker 跟踪各同步流程的互斥守卫与进度。
// 同类流程同一时刻只允许一个执行，TryStart 抢占失败返回 ErrAlreadyInProgress。
type StateTracker struct {
	mu       sync.Mutex
	running  map[SyncType]bool
	progress map[SyncType]Progress
}

// NewStateTracker 创建 StateTracker 实例
func NewStateTracker() *StateTracker {
	return &StateTracker{
		running:  make(map[SyncType]bool),
		progress: make(map[SyncType]Progress),
	}
}

// TryStart 尝试抢占守卫，成功后调用方必须以 defer Finish 释放
func (t *StateTracker) TryStart(kind SyncType) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running[kind] {
		return code.ErrAlreadyInProgress
	}
	t.running[kind] = true
	t.progress[kind] = Progress{}
	return nil
}

// Finish 释放守卫
func (t *StateTracker) Finish(kind SyncType) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running[kind] = false
}

// SetProgress 更新进度，最后写入者生效
func (t *StateTracker) SetProgress(kind SyncType, p Progress) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.progress[kind] = p
}

// Progress 读取进度快照与运行状态
func (t *StateTracker) Progress(kind SyncType) (Progress, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.progress[kind], t.running[kind]
}
