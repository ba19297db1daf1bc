// Package safe_close coordinates graceful shutdown between long-running
// goroutines. Each goroutine attaches itself and watches the close signal;
// WaitClosed blocks until every attached goroutine has called done.
package safe_close

import (
	"sync"
)

type SafeClose struct {
	mu       sync.Mutex
	closeCh  chan struct{}
	closed   bool
	closeErr error
	wg       sync.WaitGroup
}

func New() *SafeClose {
	return &SafeClose{
		closeCh: make(chan struct{}),
	}
}

// Attach 启动一个受管 goroutine
// f 必须在退出前调用 done，并监听 closeSignal
func (s *SafeClose) Attach(f func(done func(), closeSignal <-chan struct{})) {
	s.wg.Add(1)
	go f(s.wg.Done, s.closeCh)
}

// SendCloseSignal 广播关闭信号，首个非空错误会被保留
func (s *SafeClose) SendCloseSignal(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.closeErr = err
	close(s.closeCh)
}

// CloseSignal 返回关闭信号通道，供未通过 Attach 管理的调用方监听
func (s *SafeClose) CloseSignal() <-chan struct{} {
	return s.closeCh
}

// WaitClosed 阻塞直到所有受管 goroutine 退出，返回关闭时记录的错误
func (s *SafeClose) WaitClosed() error {
	s.wg.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeErr
}
