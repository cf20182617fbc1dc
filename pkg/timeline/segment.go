// Package timeline 构建并播放单个对象的变换时间线
//
// 时间线是一条单向链表：根段（主插值）加上按调用顺序追加的后续段。
// 每段是一次带延迟和时长的 position / rotation / scale 变换，
// 后一段只在前一段报告完成后才开始（严格 FIFO）。
package timeline

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/decker502/void/pkg/tween"
)

// Kind 段的变换类型
type Kind int

const (
	KindPosition Kind = iota
	KindRotation
	KindScale
)

func (k Kind) String() string {
	switch k {
	case KindPosition:
		return "position"
	case KindRotation:
		return "rotation"
	case KindScale:
		return "scale"
	default:
		return "unknown"
	}
}

// ParseKind 解析配置中的段类型名称
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "position":
		return KindPosition, true
	case "rotation":
		return KindRotation, true
	case "scale":
		return KindScale, true
	}
	return 0, false
}

// Timing 对象的基础延迟与时长，段未覆盖时使用
type Timing struct {
	Delay    time.Duration
	Duration time.Duration
}

// TimingFromSeconds 由秒数构造 Timing
func TimingFromSeconds(delay, duration float64) Timing {
	return Timing{
		Delay:    secondsToDuration(delay),
		Duration: secondsToDuration(duration),
	}
}

// Override 单段的延迟/时长覆盖（秒），nil 表示使用基础值
type Override struct {
	Delay  *float64
	Timing *float64
}

// Seconds 返回指向 v 的指针，便于构造 Override
func Seconds(v float64) *float64 {
	return &v
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Segment 时间线中的一段
//
// 每段各自持有 start / update / complete 钩子。
// position 段只使用 start/complete；rotation 与 scale 段额外用 update
// 把插值得到的扁平向量转换回领域表示（欧拉角、二维尺寸）。
type Segment struct {
	kind    Kind
	tw      *tween.Tween
	next    *Segment
	chain   *Chain
	counted bool // 是否计入 pending

	onStart    func(*Segment)
	onUpdate   func(*Segment, mgl64.Vec3)
	onComplete func(*Segment)
}

// CreateSegment 创建一段线性插值
//
// from 在该段真正开始时被调用一次，得到起始值。
// delay = ov.Delay ?? base.Delay，duration = ov.Timing ?? base.Duration。
// 延迟与时长应为非负数，这里不做校验。
func CreateSegment(kind Kind, from func() mgl64.Vec3, base Timing, ov Override) *Segment {
	delay := base.Delay
	if ov.Delay != nil {
		delay = secondsToDuration(*ov.Delay)
	}
	duration := base.Duration
	if ov.Timing != nil {
		duration = secondsToDuration(*ov.Timing)
	}

	s := &Segment{kind: kind}
	s.tw = tween.New(from).
		SetDelay(delay).
		SetDuration(duration).
		SetEasing(tween.Linear)
	s.tw.OnStart(s.handleStart)
	s.tw.OnUpdate(s.handleUpdate)
	s.tw.OnComplete(s.handleComplete)
	return s
}

// To 设置目标值
func (s *Segment) To(target mgl64.Vec3) *Segment {
	s.tw.To(target)
	return s
}

// OnStart 设置开始钩子（延迟结束、插值开始时触发一次）
func (s *Segment) OnStart(fn func(*Segment)) *Segment {
	s.onStart = fn
	return s
}

// OnUpdate 设置逐步更新钩子
func (s *Segment) OnUpdate(fn func(*Segment, mgl64.Vec3)) *Segment {
	s.onUpdate = fn
	return s
}

// OnComplete 设置完成钩子（时长结束时触发一次）
// 触发时所属链的 pending 已经递减
func (s *Segment) OnComplete(fn func(*Segment)) *Segment {
	s.onComplete = fn
	return s
}

// Kind 返回段的变换类型
func (s *Segment) Kind() Kind { return s.kind }

// Next 返回后继段，没有则为 nil
func (s *Segment) Next() *Segment { return s.next }

func (s *Segment) Delay() time.Duration       { return s.tw.Delay() }
func (s *Segment) Duration() time.Duration    { return s.tw.Duration() }
func (s *Segment) Target() (mgl64.Vec3, bool) { return s.tw.Target() }
func (s *Segment) HasTarget() bool            { return s.tw.HasTarget() }

// From 返回开始时采样的起始值
func (s *Segment) From() mgl64.Vec3 { return s.tw.From() }

// Value 返回最近一次插值结果
func (s *Segment) Value() mgl64.Vec3 { return s.tw.Value() }

func (s *Segment) IsStarted() bool   { return s.tw.IsStarted() }
func (s *Segment) IsCompleted() bool { return s.tw.IsCompleted() }

func (s *Segment) attach(c *Chain, counted bool) {
	s.chain = c
	s.counted = counted
}

func (s *Segment) link(next *Segment) {
	s.next = next
	s.tw.Chain(next.tw)
}

func (s *Segment) start(g *tween.Group) {
	s.tw.Start(g)
}

func (s *Segment) handleStart() {
	if s.onStart != nil {
		s.onStart(s)
	}
}

func (s *Segment) handleUpdate(v mgl64.Vec3) {
	if s.onUpdate != nil {
		s.onUpdate(s, v)
	}
}

func (s *Segment) handleComplete() {
	if s.chain != nil && s.counted {
		s.chain.segmentDone()
	}
	if s.onComplete != nil {
		s.onComplete(s)
	}
}
