package choreo

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/decker502/void/pkg/components"
	"github.com/decker502/void/pkg/config"
	"github.com/decker502/void/pkg/ecs"
	"github.com/decker502/void/pkg/timeline"
	"github.com/decker502/void/pkg/tween"
)

// State 墙体生命周期状态
type State int

const (
	// StatePending 已创建，尚未进入场景
	StatePending State = iota
	// StateSpawned 已在场景中，当前没有段在插值
	StateSpawned
	// StateAnimating 有段正在插值
	StateAnimating
	// StateDisposing 最后一段已完成，等待（或正在）销毁
	StateDisposing
	// StateDisposed 终态：已移出场景并释放资源
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateSpawned:
		return "spawned"
	case StateAnimating:
		return "animating"
	case StateDisposing:
		return "disposing"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// WallParams 墙体构造参数
type WallParams struct {
	Name         string
	Size         mgl64.Vec2 // 宽、高
	Position     mgl64.Vec3 // 起始位置
	Delay        float64    // 基础延迟（秒）
	Timing       float64    // 基础时长（秒）
	SpawnOnStart bool       // true: 第一段开始时才进入场景
	Scheduler    Scheduler  // 销毁宽限定时器，nil 使用 WallClock
	Debug        bool
}

// MovingWall 按时间线移动、旋转、缩放的墙体
//
// 时间线回调都在主循环中执行；宽限销毁在计时器 goroutine 上执行，
// 因此状态、音效句柄与监听器由 mu 保护。
type MovingWall struct {
	name      string
	stage     Stage
	id        ecs.EntityID
	transform *components.TransformComponent
	scheduler Scheduler

	size     mgl64.Vec2
	rotation mgl64.Vec3
	base     timeline.Timing
	chain    *timeline.Chain

	spawnOnStart      bool
	destroyOnComplete bool
	destroyDelay      float64 // 秒

	mu        sync.Mutex
	state     State
	audio     AudioHandle
	debug     bool
	listeners []func()
	done      chan struct{}
}

// NewMovingWall 创建墙体并构建根段（主插值，作用于位置）
//
// SpawnOnStart 为 false 时立即进入场景。
func NewMovingWall(stage Stage, id ecs.EntityID, transform *components.TransformComponent, p WallParams) *MovingWall {
	if p.Scheduler == nil {
		p.Scheduler = WallClock{}
	}
	transform.Position = p.Position
	transform.SetScale2D(p.Size.X(), p.Size.Y())

	w := &MovingWall{
		name:         p.Name,
		stage:        stage,
		id:           id,
		transform:    transform,
		scheduler:    p.Scheduler,
		size:         p.Size,
		rotation:     transform.Rotation,
		base:         timeline.TimingFromSeconds(p.Delay, p.Timing),
		spawnOnStart: p.SpawnOnStart,
		debug:        p.Debug,
		done:         make(chan struct{}),
	}

	root := timeline.CreateSegment(timeline.KindPosition, w.currentPosition, w.base, timeline.Override{})
	root.OnStart(w.onRootStart).
		OnUpdate(w.applyPosition).
		OnComplete(w.onSegmentComplete)
	w.chain = timeline.NewChain(w.base, root)

	if !w.spawnOnStart {
		w.spawn()
	}
	return w
}

// ========== 配置 ==========

// SetInitialRotation 设置初始旋转（欧拉角，弧度）
func (w *MovingWall) SetInitialRotation(euler mgl64.Vec3) {
	w.rotation = euler
	w.transform.SetRotationFromEuler(euler)
}

// SetTargetPosition 设置主插值的目标位置
// 主插值已有目标时无操作并返回 false
func (w *MovingWall) SetTargetPosition(target mgl64.Vec3) bool {
	return w.chain.SetInitialTarget(target)
}

// AddTargetPosition 追加一段位置插值
//
// 主插值还没有目标时，先以当前位置作为其目标（原地等待 delay+timing）。
func (w *MovingWall) AddTargetPosition(target mgl64.Vec3, ov timeline.Override) error {
	if !w.chain.Root().HasTarget() {
		w.chain.SetInitialTarget(w.transform.Position)
	}
	seg := timeline.CreateSegment(timeline.KindPosition, w.currentPosition, w.base, ov).To(target)
	seg.OnStart(w.onPositionStart).
		OnUpdate(w.applyPosition).
		OnComplete(w.onSegmentComplete)
	return w.append(seg)
}

// AddTargetRotation 追加一段旋转插值（欧拉角，弧度）
func (w *MovingWall) AddTargetRotation(target mgl64.Vec3, ov timeline.Override) error {
	seg := timeline.CreateSegment(timeline.KindRotation, w.currentRotation, w.base, ov).To(target)
	seg.OnStart(w.onAlwaysAudibleStart).
		OnUpdate(w.applyRotation).
		OnComplete(w.onSegmentComplete)
	return w.append(seg)
}

// AddTargetScale 追加一段缩放插值，target 为目标二维尺寸
// 插值在三维空间进行，Z 固定为 1
func (w *MovingWall) AddTargetScale(target mgl64.Vec2, ov timeline.Override) error {
	seg := timeline.CreateSegment(timeline.KindScale, w.currentScale, w.base, ov).
		To(mgl64.Vec3{target.X(), target.Y(), 1})
	seg.OnStart(w.onAlwaysAudibleStart).
		OnUpdate(w.applyScale).
		OnComplete(w.onSegmentComplete)
	return w.append(seg)
}

// AddStep 按配置追加一段
func (w *MovingWall) AddStep(step config.StepSpec) error {
	switch step.Kind {
	case timeline.KindPosition:
		return w.AddTargetPosition(step.Target, step.Override)
	case timeline.KindRotation:
		return w.AddTargetRotation(step.Target, step.Override)
	case timeline.KindScale:
		return w.AddTargetScale(mgl64.Vec2{step.Target.X(), step.Target.Y()}, step.Override)
	}
	return fmt.Errorf("unknown segment kind %s", step.Kind)
}

func (w *MovingWall) append(seg *timeline.Segment) error {
	if err := w.chain.Append(seg); err != nil {
		return err
	}
	w.debugf("%s segment appended, pending=%d", seg.Kind(), w.chain.Pending())
	return nil
}

// SetDestroyOnComplete 最后一段完成后销毁墙体，delay 为宽限时间（秒）
func (w *MovingWall) SetDestroyOnComplete(destroy bool, delay float64) {
	w.destroyOnComplete = destroy
	w.destroyDelay = delay
}

// SetSpawnOnStart 设置是否在第一段开始时才进入场景
func (w *MovingWall) SetSpawnOnStart(spawnOnStart bool) {
	w.spawnOnStart = spawnOnStart
}

// SetAudio 绑定音效句柄（循环播放）
// 可以在墙体已经开始动画之后调用，之后的段开始时会播放
func (w *MovingWall) SetAudio(handle AudioHandle) {
	if handle == nil {
		return
	}
	handle.SetLoop(true)

	w.mu.Lock()
	w.audio = handle
	w.mu.Unlock()
	w.debugf("audio attached")
}

// SetDebug 输出每一步的调试日志
func (w *MovingWall) SetDebug() {
	w.mu.Lock()
	w.debug = true
	w.mu.Unlock()
}

// Start 启动时间线
func (w *MovingWall) Start(g *tween.Group) error {
	if err := w.chain.Start(g); err != nil {
		return err
	}
	w.debugf("timeline started: %d segments, pending=%d", w.chain.Len(), w.chain.Pending())
	return nil
}

// ========== 销毁通知 ==========

// OnDestroyed 注册销毁回调，只触发一次
// 已销毁时立即调用
func (w *MovingWall) OnDestroyed(fn func()) {
	w.mu.Lock()
	if w.state == StateDisposed {
		w.mu.Unlock()
		fn()
		return
	}
	w.listeners = append(w.listeners, fn)
	w.mu.Unlock()
}

// Done 在墙体销毁后关闭
func (w *MovingWall) Done() <-chan struct{} {
	return w.done
}

// ========== 查询 ==========

func (w *MovingWall) Name() string            { return w.name }
func (w *MovingWall) ID() ecs.EntityID        { return w.id }
func (w *MovingWall) Chain() *timeline.Chain  { return w.chain }
func (w *MovingWall) Pending() int            { return w.chain.Pending() }
func (w *MovingWall) Position() mgl64.Vec3    { return w.transform.Position }
func (w *MovingWall) Rotation() mgl64.Vec3    { return w.rotation }
func (w *MovingWall) Size() mgl64.Vec2        { return w.size }
func (w *MovingWall) DestroyOnComplete() bool { return w.destroyOnComplete }
func (w *MovingWall) SpawnOnStart() bool      { return w.spawnOnStart }

func (w *MovingWall) Transform() *components.TransformComponent {
	return w.transform
}

// State 返回当前生命周期状态
func (w *MovingWall) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// ========== 时间线回调 ==========

func (w *MovingWall) currentPosition() mgl64.Vec3 {
	return w.transform.Position
}

func (w *MovingWall) currentRotation() mgl64.Vec3 {
	return w.rotation
}

func (w *MovingWall) currentScale() mgl64.Vec3 {
	return mgl64.Vec3{w.size.X(), w.size.Y(), 1}
}

func (w *MovingWall) applyPosition(_ *timeline.Segment, v mgl64.Vec3) {
	w.transform.Position = v
}

func (w *MovingWall) applyRotation(_ *timeline.Segment, v mgl64.Vec3) {
	w.rotation = v
	w.transform.SetRotationFromEuler(v)
}

func (w *MovingWall) applyScale(_ *timeline.Segment, v mgl64.Vec3) {
	w.size = mgl64.Vec2{v.X(), v.Y()}
	w.transform.SetScale2D(v.X(), v.Y())
}

// onRootStart 主插值开始：按需进入场景，位置确实变化时才播放音效
func (w *MovingWall) onRootStart(seg *timeline.Segment) {
	w.debugf("animation start")
	w.onPositionStart(seg)
}

func (w *MovingWall) onPositionStart(seg *timeline.Segment) {
	w.beginSegment(seg)
	if target, ok := seg.Target(); ok && target.Sub(seg.From()).Len() > 0 {
		w.playAudio()
	}
}

// onAlwaysAudibleStart 旋转与缩放段开始时总是播放音效
func (w *MovingWall) onAlwaysAudibleStart(seg *timeline.Segment) {
	w.beginSegment(seg)
	w.playAudio()
}

func (w *MovingWall) beginSegment(seg *timeline.Segment) {
	if w.spawnOnStart {
		w.spawn()
	}
	w.mu.Lock()
	if w.state == StateSpawned {
		w.state = StateAnimating
	}
	w.mu.Unlock()
	w.debugf("%s animation", seg.Kind())
}

func (w *MovingWall) onSegmentComplete(seg *timeline.Segment) {
	w.stopAudio()

	pending := w.chain.Pending()
	w.mu.Lock()
	if w.state == StateAnimating {
		w.state = StateSpawned
	}
	w.mu.Unlock()
	w.debugf("%s animation completed, chains left: %d", seg.Kind(), pending)

	if w.destroyOnComplete && pending == 0 {
		w.beginDisposal()
	}
}

// spawn 插入场景（Pending → Spawned），只发生一次
func (w *MovingWall) spawn() {
	w.mu.Lock()
	if w.state != StatePending {
		w.mu.Unlock()
		return
	}
	w.state = StateSpawned
	w.mu.Unlock()

	w.stage.Insert(w.id)
	w.debugf("spawned")
}

func (w *MovingWall) beginDisposal() {
	w.mu.Lock()
	if w.state >= StateDisposing {
		w.mu.Unlock()
		return
	}
	w.state = StateDisposing
	w.mu.Unlock()

	if w.destroyDelay > 0 {
		d := time.Duration(w.destroyDelay * float64(time.Second))
		w.debugf("wall will be removed after %v", d)
		w.scheduler.AfterFunc(d, w.dispose)
		return
	}
	w.dispose()
}

// dispose 移出场景、释放资源并通知监听器
// 终态保护保证只执行一次
func (w *MovingWall) dispose() {
	w.mu.Lock()
	if w.state == StateDisposed {
		w.mu.Unlock()
		return
	}
	w.state = StateDisposed
	listeners := w.listeners
	w.listeners = nil
	w.mu.Unlock()

	if w.stage.Contains(w.id) {
		w.stage.Remove(w.id)
	}
	w.stage.Release(w.id)
	close(w.done)
	w.debugf("destroyed")

	for _, fn := range listeners {
		fn()
	}
}

// ========== 音效 ==========

func (w *MovingWall) playAudio() {
	w.mu.Lock()
	audio := w.audio
	w.mu.Unlock()
	if audio != nil {
		audio.Play()
	}
}

func (w *MovingWall) stopAudio() {
	w.mu.Lock()
	audio := w.audio
	w.mu.Unlock()
	if audio != nil && audio.IsPlaying() {
		audio.Stop()
	}
}

func (w *MovingWall) debugf(format string, args ...interface{}) {
	w.mu.Lock()
	debug := w.debug
	w.mu.Unlock()
	if debug {
		log.Printf("[MovingWall %s] "+format, append([]interface{}{w.name}, args...)...)
	}
}
