// Package choreo 管理编排墙体的生命周期
//
// MovingWall 在一条时间线周围控制三件事：
//   - 何时进入场景（立即，或第一段开始时）
//   - 何时播放/停止音效
//   - 最后一段完成后何时销毁（立即，或等待宽限时间）
//
// Choreograph 根据编排配置批量创建墙体并统一启动。
package choreo

import (
	"time"

	"github.com/decker502/void/pkg/ecs"
)

// Stage 场景图能力
type Stage interface {
	Insert(id ecs.EntityID)
	Remove(id ecs.EntityID)
	Contains(id ecs.EntityID) bool
	// Release 释放节点的几何与材质
	Release(id ecs.EntityID)
}

// AudioHandle 墙体音效句柄
type AudioHandle interface {
	Play()
	Stop()
	IsPlaying() bool
	SetLoop(loop bool)
}

// Scheduler 一次性定时器，用于销毁宽限时间
// 定时器不可取消，也不与渲染帧对齐
type Scheduler interface {
	AfterFunc(d time.Duration, f func())
}

// WallClock 基于 time.AfterFunc 的 Scheduler
type WallClock struct{}

// AfterFunc 在 d 之后于独立 goroutine 上调用 f
func (WallClock) AfterFunc(d time.Duration, f func()) {
	time.AfterFunc(d, f)
}
