// Package tween 实现基于帧时钟的向量插值
//
// Tween 描述一段"从当前值到目标值"的插值：延迟 delay 后开始，
// 持续 duration，按 Easing 曲线推进，并提供 start/update/complete 回调。
// Tween 之间可以通过 Chain 串联：前一段完成时，后一段才开始计时。
//
// 所有 Tween 都由一个 Group 驱动，Group 是唯一的动画时间源，
// 每渲染一帧调用一次 Group.Update(dt)。
package tween

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// Tween 单段插值
//
// 输入/输出值由 Tween 自己持有（From/Value），
// 通过 OnUpdate 回调把结果交给调用方写回领域对象，避免与领域状态共享同一个向量。
type Tween struct {
	sample func() mgl64.Vec3 // 开始时读取起始值

	from      mgl64.Vec3
	to        mgl64.Vec3
	value     mgl64.Vec3
	hasTarget bool

	delay    time.Duration
	duration time.Duration
	easing   Easing

	onStart    func()
	onUpdate   func(mgl64.Vec3)
	onComplete func()

	next *Tween

	group     *Group
	startTime time.Duration // Start 时的组时钟
	playing   bool          // 已加入 Group，尚未完成
	started   bool          // 延迟已过，onStart 已触发
	completed bool
}

// New 创建一个插值，sample 在延迟结束的那一刻被调用一次以获得起始值
func New(sample func() mgl64.Vec3) *Tween {
	return &Tween{
		sample: sample,
		easing: Linear,
	}
}

// To 设置目标值
func (t *Tween) To(target mgl64.Vec3) *Tween {
	t.to = target
	t.hasTarget = true
	return t
}

// SetDelay 设置开始前的等待时间
func (t *Tween) SetDelay(d time.Duration) *Tween {
	t.delay = d
	return t
}

// SetDuration 设置插值持续时间，0 表示延迟结束后立即到达目标值
func (t *Tween) SetDuration(d time.Duration) *Tween {
	t.duration = d
	return t
}

// SetEasing 设置缓动函数，nil 视为 Linear
func (t *Tween) SetEasing(e Easing) *Tween {
	if e == nil {
		e = Linear
	}
	t.easing = e
	return t
}

// OnStart 延迟结束、插值开始时调用一次
func (t *Tween) OnStart(fn func()) *Tween {
	t.onStart = fn
	return t
}

// OnUpdate 每一步插值后调用，参数为当前插值结果
func (t *Tween) OnUpdate(fn func(mgl64.Vec3)) *Tween {
	t.onUpdate = fn
	return t
}

// OnComplete 插值结束时调用一次
func (t *Tween) OnComplete(fn func()) *Tween {
	t.onComplete = fn
	return t
}

// Chain 设置后继：本段完成后后继才开始
// 每个 Tween 只有一个后继，重复调用会覆盖
func (t *Tween) Chain(next *Tween) *Tween {
	t.next = next
	return t
}

// Next 返回后继，没有则为 nil
func (t *Tween) Next() *Tween { return t.next }

// Target 返回目标值以及是否设置过目标
func (t *Tween) Target() (mgl64.Vec3, bool) { return t.to, t.hasTarget }

// HasTarget 是否设置过目标值
func (t *Tween) HasTarget() bool { return t.hasTarget }

// From 返回开始时采样得到的起始值（开始前为零向量）
func (t *Tween) From() mgl64.Vec3 { return t.from }

// Value 返回最近一次插值结果
func (t *Tween) Value() mgl64.Vec3 { return t.value }

// Delay 返回开始前的等待时间
func (t *Tween) Delay() time.Duration { return t.delay }

// Duration 返回插值持续时间
func (t *Tween) Duration() time.Duration { return t.duration }

// IsPlaying 是否已启动且尚未完成（包括仍在延迟中）
func (t *Tween) IsPlaying() bool { return t.playing }

// IsStarted 延迟是否已结束（onStart 是否已触发）
func (t *Tween) IsStarted() bool { return t.started }

// IsCompleted 是否已完成
func (t *Tween) IsCompleted() bool { return t.completed }

// Start 以 Group 的当前时钟为起点启动插值
func (t *Tween) Start(g *Group) {
	t.startAt(g, g.Now())
}

func (t *Tween) startAt(g *Group, at time.Duration) {
	if t.playing {
		return
	}
	t.group = g
	t.startTime = at
	t.playing = true
	t.started = false
	t.completed = false
	g.add(t)
}

// endTime 逻辑结束时刻（不受帧粒度影响）
func (t *Tween) endTime() time.Duration {
	return t.startTime + t.delay + t.duration
}

// step 推进到组时钟 now，返回是否仍在播放
func (t *Tween) step(now time.Duration) bool {
	if !t.playing {
		return false
	}
	begin := t.startTime + t.delay
	if now < begin {
		return true
	}

	if !t.started {
		t.started = true
		if t.sample != nil {
			t.from = t.sample()
		}
		t.value = t.from
		if t.onStart != nil {
			t.onStart()
		}
	}

	progress := 1.0
	if elapsed := now - begin; t.duration > 0 && elapsed < t.duration {
		progress = float64(elapsed) / float64(t.duration)
	}

	switch {
	case !t.hasTarget:
		t.value = t.from
	case progress >= 1:
		// 结束时精确落在目标值上，避免浮点累积误差
		t.value = t.to
	default:
		e := t.easing(progress)
		t.value = t.from.Add(t.to.Sub(t.from).Mul(e))
	}

	if t.onUpdate != nil {
		t.onUpdate(t.value)
	}

	if progress < 1 {
		return true
	}

	t.playing = false
	t.completed = true
	if t.onComplete != nil {
		t.onComplete()
	}
	if t.next != nil {
		t.next.startAt(t.group, t.endTime())
	}
	return false
}
