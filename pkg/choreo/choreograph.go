package choreo

import (
	"fmt"
	"log"
	"sync"

	"github.com/decker502/void/pkg/components"
	"github.com/decker502/void/pkg/config"
	"github.com/decker502/void/pkg/ecs"
	"github.com/decker502/void/pkg/tween"
)

// NodeFactory 为一面墙体创建场景节点（网格、材质、变换）
// 返回的节点尚未插入场景
type NodeFactory func(spec config.WallSpec) (ecs.EntityID, *components.TransformComponent, error)

// Option Choreograph 可选参数
type Option func(*Choreograph)

// WithScheduler 替换销毁宽限定时器（模拟运行时使用）
func WithScheduler(s Scheduler) Option {
	return func(c *Choreograph) {
		c.scheduler = s
	}
}

// WithDebug 打开所有墙体的调试日志
func WithDebug(debug bool) Option {
	return func(c *Choreograph) {
		c.debug = debug
	}
}

// Choreograph 一组按编排配置创建的墙体
//
// 墙体销毁后按身份从存活列表中移除。
type Choreograph struct {
	scheduler Scheduler
	debug     bool

	mu        sync.Mutex
	all       []*MovingWall
	live      []*MovingWall
	byName    map[string]*MovingWall
	remaining int // 尚未销毁的 destroyOnComplete 墙体
	started   bool

	done     chan struct{}
	doneOnce sync.Once
}

// NewChoreograph 按编排创建所有墙体
//
// 不会自动销毁的墙体（destroyOnComplete=false）一直留在场景中，
// 不计入 Done。
func NewChoreograph(stage Stage, specs []config.WallSpec, factory NodeFactory, opts ...Option) (*Choreograph, error) {
	c := &Choreograph{
		scheduler: WallClock{},
		byName:    make(map[string]*MovingWall, len(specs)),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	for _, spec := range specs {
		wall, err := c.buildWall(stage, spec, factory)
		if err != nil {
			return nil, fmt.Errorf("failed to build wall %q: %w", spec.Name, err)
		}
		c.all = append(c.all, wall)
		c.live = append(c.live, wall)
		c.byName[spec.Name] = wall
		if spec.DestroyOnComplete {
			c.remaining++
		}
	}

	log.Printf("[Choreograph] Created %d walls (%d will be destroyed)", len(c.all), c.remaining)
	return c, nil
}

func (c *Choreograph) buildWall(stage Stage, spec config.WallSpec, factory NodeFactory) (*MovingWall, error) {
	id, transform, err := factory(spec)
	if err != nil {
		return nil, err
	}

	wall := NewMovingWall(stage, id, transform, WallParams{
		Name:         spec.Name,
		Size:         spec.Size,
		Position:     spec.Position,
		Delay:        spec.Delay,
		Timing:       spec.Timing,
		SpawnOnStart: spec.SpawnOnStart,
		Scheduler:    c.scheduler,
		Debug:        c.debug,
	})

	if spec.InitialRotation != nil {
		wall.SetInitialRotation(*spec.InitialRotation)
	}
	if spec.TargetPosition != nil {
		wall.SetTargetPosition(*spec.TargetPosition)
	}
	for i, step := range spec.Steps {
		if err := wall.AddStep(step); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}
	wall.SetDestroyOnComplete(spec.DestroyOnComplete, spec.DestroyDelay)
	return wall, nil
}

// Start 启动所有墙体
func (c *Choreograph) Start(g *tween.Group) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return fmt.Errorf("choreograph already started")
	}
	c.started = true
	walls := append([]*MovingWall(nil), c.all...)
	remaining := c.remaining
	c.mu.Unlock()

	if remaining == 0 {
		c.doneOnce.Do(func() { close(c.done) })
	}

	for _, wall := range walls {
		w := wall
		w.OnDestroyed(func() { c.removeWall(w) })
		if err := w.Start(g); err != nil {
			return fmt.Errorf("failed to start wall %q: %w", w.Name(), err)
		}
	}
	log.Printf("[Choreograph] Started %d walls", len(walls))
	return nil
}

func (c *Choreograph) removeWall(w *MovingWall) {
	c.mu.Lock()
	for i, live := range c.live {
		if live == w {
			c.live = append(c.live[:i], c.live[i+1:]...)
			break
		}
	}
	c.remaining--
	remaining := c.remaining
	left := len(c.live)
	c.mu.Unlock()

	if c.debug {
		log.Printf("[Choreograph] Wall %s removed, %d walls left", w.Name(), left)
	}
	if remaining == 0 {
		c.doneOnce.Do(func() { close(c.done) })
	}
}

// AttachAudio 为指定墙体绑定音效
// 墙体不存在或已销毁时返回 false
func (c *Choreograph) AttachAudio(name string, handle AudioHandle) bool {
	c.mu.Lock()
	wall, ok := c.byName[name]
	c.mu.Unlock()
	if !ok || wall.State() == StateDisposed {
		return false
	}
	wall.SetAudio(handle)
	return true
}

// Walls 返回尚未销毁的墙体（按配置顺序）
func (c *Choreograph) Walls() []*MovingWall {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*MovingWall(nil), c.live...)
}

// All 返回所有创建过的墙体（含已销毁）
func (c *Choreograph) All() []*MovingWall {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*MovingWall(nil), c.all...)
}

// Len 返回存活墙体数量
func (c *Choreograph) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.live)
}

// Wall 按名称查找墙体（含已销毁）
func (c *Choreograph) Wall(name string) (*MovingWall, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	w, ok := c.byName[name]
	return w, ok
}

// Done 在所有 destroyOnComplete 墙体销毁后关闭
func (c *Choreograph) Done() <-chan struct{} {
	return c.done
}
