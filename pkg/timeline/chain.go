package timeline

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/decker502/void/pkg/tween"
)

// ErrChainStarted 时间线启动后不能再修改
var ErrChainStarted = errors.New("timeline: chain already started")

// Chain 一个对象的段链
//
// 保存显式的尾指针，追加时直接挂到"当前最后执行的段"之后，
// 不需要每次从根遍历。
//
// pending 计数：
//   - 带目标的根段、每个追加段各计 1
//   - 计入的段完成时减 1（在段自身的完成钩子之前）
//   - 没有目标的根段不计数，完成时也不递减
type Chain struct {
	base    Timing
	root    *Segment
	tail    *Segment
	length  int
	pending int
	started bool
}

// NewChain 以 root 为根段创建段链
func NewChain(base Timing, root *Segment) *Chain {
	c := &Chain{
		base:   base,
		root:   root,
		tail:   root,
		length: 1,
	}
	counted := root.HasTarget()
	root.attach(c, counted)
	if counted {
		c.pending++
	}
	return c
}

// Base 返回基础时序
func (c *Chain) Base() Timing { return c.base }

// Root 返回根段
func (c *Chain) Root() *Segment { return c.root }

// Tail 返回当前尾段
func (c *Chain) Tail() *Segment { return c.tail }

// Len 返回段数（含根段）
func (c *Chain) Len() int { return c.length }

// Pending 返回尚未完成的计数段数量
func (c *Chain) Pending() int { return c.pending }

// Started 是否已调用 Start
func (c *Chain) Started() bool { return c.started }

// Segments 按执行顺序返回所有段
func (c *Chain) Segments() []*Segment {
	out := make([]*Segment, 0, c.length)
	for s := c.root; s != nil; s = s.next {
		out = append(out, s)
	}
	return out
}

// Append 把 seg 挂到尾段之后并计入 pending
// 执行顺序即追加顺序；启动后调用返回 ErrChainStarted
func (c *Chain) Append(seg *Segment) error {
	if c.started {
		return ErrChainStarted
	}
	seg.attach(c, true)
	c.tail.link(seg)
	c.tail = seg
	c.length++
	c.pending++
	return nil
}

// SetInitialTarget 根段尚无目标时设置目标并计入 pending
// 根段已有目标时不做任何修改并返回 false
func (c *Chain) SetInitialTarget(target mgl64.Vec3) bool {
	if c.root.HasTarget() {
		return false
	}
	if c.started {
		return false
	}
	c.root.To(target)
	c.root.counted = true
	c.pending++
	return true
}

// Start 启动根段，后续段在前驱完成时自动开始
func (c *Chain) Start(g *tween.Group) error {
	if c.started {
		return ErrChainStarted
	}
	c.started = true
	c.root.start(g)
	return nil
}

func (c *Chain) segmentDone() {
	if c.pending > 0 {
		c.pending--
	}
}
