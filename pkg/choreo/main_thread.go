package choreo

import (
	"sync"
	"time"
)

// MainThreadScheduler 计时在独立 goroutine 上进行，
// 到期的回调排队，由主循环调用 RunPending 执行
//
// 场景图与渲染都在主循环中访问网格数据，销毁放回主循环即可避免竞争。
// 回调最多比计时到期晚一帧。
type MainThreadScheduler struct {
	mu      sync.Mutex
	pending []func()
}

// NewMainThreadScheduler 创建调度器
func NewMainThreadScheduler() *MainThreadScheduler {
	return &MainThreadScheduler{}
}

// AfterFunc 在 d 之后把 f 放入队列
func (s *MainThreadScheduler) AfterFunc(d time.Duration, f func()) {
	time.AfterFunc(d, func() {
		s.mu.Lock()
		s.pending = append(s.pending, f)
		s.mu.Unlock()
	})
}

// RunPending 执行所有已到期的回调，返回执行数量
func (s *MainThreadScheduler) RunPending() int {
	s.mu.Lock()
	due := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, f := range due {
		f()
	}
	return len(due)
}
