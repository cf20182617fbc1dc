package choreo

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/decker502/void/pkg/components"
	"github.com/decker502/void/pkg/ecs"
	"github.com/decker502/void/pkg/timeline"
	"github.com/decker502/void/pkg/tween"
)

const frame = 100 * time.Millisecond

// fakeStage 记录场景操作及其发生时刻
type fakeStage struct {
	mu       sync.Mutex
	now      func() time.Duration
	present  map[ecs.EntityID]bool
	inserts  map[ecs.EntityID][]time.Duration
	removes  int
	releases map[ecs.EntityID]int
	released map[ecs.EntityID]time.Duration
}

func newFakeStage(now func() time.Duration) *fakeStage {
	return &fakeStage{
		now:      now,
		present:  make(map[ecs.EntityID]bool),
		inserts:  make(map[ecs.EntityID][]time.Duration),
		releases: make(map[ecs.EntityID]int),
		released: make(map[ecs.EntityID]time.Duration),
	}
}

func (s *fakeStage) Insert(id ecs.EntityID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.present[id] = true
	s.inserts[id] = append(s.inserts[id], s.now())
}

func (s *fakeStage) Remove(id ecs.EntityID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.present, id)
	s.removes++
}

func (s *fakeStage) Contains(id ecs.EntityID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.present[id]
}

func (s *fakeStage) Release(id ecs.EntityID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releases[id]++
	s.released[id] = s.now()
}

// fakeAudio 记录播放与停止
type fakeAudio struct {
	playing bool
	loop    bool
	plays   []time.Duration
	stops   []time.Duration
	now     func() time.Duration
}

func (a *fakeAudio) Play() {
	a.playing = true
	a.plays = append(a.plays, a.now())
}

func (a *fakeAudio) Stop() {
	a.playing = false
	a.stops = append(a.stops, a.now())
}

func (a *fakeAudio) IsPlaying() bool   { return a.playing }
func (a *fakeAudio) SetLoop(loop bool) { a.loop = loop }

// manualScheduler 记录定时器，由测试手动触发
type manualScheduler struct {
	delays []time.Duration
	funcs  []func()
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) {
	s.delays = append(s.delays, d)
	s.funcs = append(s.funcs, f)
}

func (s *manualScheduler) fireAll() {
	for _, f := range s.funcs {
		f()
	}
}

type fixture struct {
	group *tween.Group
	stage *fakeStage
	audio *fakeAudio
	sched *manualScheduler
}

func newFixture() *fixture {
	g := tween.NewGroup()
	return &fixture{
		group: g,
		stage: newFakeStage(g.Now),
		audio: &fakeAudio{now: g.Now},
		sched: &manualScheduler{},
	}
}

func (f *fixture) newWall(id ecs.EntityID, p WallParams) *MovingWall {
	if p.Scheduler == nil {
		p.Scheduler = f.sched
	}
	transform := components.NewTransform(p.Position, p.Size)
	return NewMovingWall(f.stage, id, transform, p)
}

func (f *fixture) runUntil(limit time.Duration, each func()) {
	for f.group.Now() < limit {
		f.group.Update(frame)
		if each != nil {
			each()
		}
	}
}

// TestScenarioPositionThenRotation 基础 2s/10s，追加 {delay:0, timing:4} 的旋转段
func TestScenarioPositionThenRotation(t *testing.T) {
	f := newFixture()
	w := f.newWall(1, WallParams{
		Name:         "scenario",
		Size:         mgl64.Vec2{100, 50},
		Position:     mgl64.Vec3{0, 0, 0},
		Delay:        2,
		Timing:       10,
		SpawnOnStart: true,
	})
	w.SetTargetPosition(mgl64.Vec3{100, 0, 0})
	if err := w.AddTargetRotation(mgl64.Vec3{0, math.Pi / 2, 0}, timeline.Override{
		Delay:  timeline.Seconds(0),
		Timing: timeline.Seconds(4),
	}); err != nil {
		t.Fatalf("AddTargetRotation failed: %v", err)
	}
	w.SetDestroyOnComplete(true, 0)
	w.SetAudio(f.audio)

	if !f.audio.loop {
		t.Error("Attached audio should loop")
	}
	if f.stage.Contains(1) {
		t.Fatal("spawnOnStart wall must not be in the scene before its first segment starts")
	}
	if w.Pending() != 2 {
		t.Fatalf("Expected pending 2 before start, got %d", w.Pending())
	}
	if err := w.Start(f.group); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	var pendingChanges []time.Duration
	last := w.Pending()
	f.runUntil(20*time.Second, func() {
		if p := w.Pending(); p != last {
			pendingChanges = append(pendingChanges, f.group.Now())
			last = p
		}
		if f.group.Now() == 7*time.Second {
			if x := w.Position().X(); math.Abs(x-50) > 1e-9 {
				t.Errorf("Expected x=50 halfway through the position tween, got %f", x)
			}
		}
	})

	if got := f.stage.inserts[1]; len(got) != 1 || got[0] != 2*time.Second {
		t.Errorf("Expected a single insertion at 2s, got %v", got)
	}
	if len(pendingChanges) != 2 || pendingChanges[0] != 12*time.Second || pendingChanges[1] != 16*time.Second {
		t.Errorf("Expected pending 2→1 at 12s and 1→0 at 16s, got %v", pendingChanges)
	}
	if !w.Position().ApproxEqual(mgl64.Vec3{100, 0, 0}) {
		t.Errorf("Expected final position (100,0,0), got %v", w.Position())
	}
	if w.Rotation() != (mgl64.Vec3{0, math.Pi / 2, 0}) {
		t.Errorf("Final rotation should equal the target exactly, got %v", w.Rotation())
	}

	if at, ok := f.stage.released[1]; !ok || at != 16*time.Second {
		t.Errorf("Expected disposal at 16s, got %v (released=%v)", at, ok)
	}
	if f.stage.releases[1] != 1 || f.stage.removes != 1 {
		t.Errorf("Expected exactly one remove and release, got %d/%d", f.stage.removes, f.stage.releases[1])
	}
	if w.State() != StateDisposed {
		t.Errorf("Expected disposed state, got %s", w.State())
	}
	select {
	case <-w.Done():
	default:
		t.Error("Done channel should be closed")
	}

	wantPlays := []time.Duration{2 * time.Second, 12 * time.Second}
	wantStops := []time.Duration{12 * time.Second, 16 * time.Second}
	if !equalDurations(f.audio.plays, wantPlays) || !equalDurations(f.audio.stops, wantStops) {
		t.Errorf("Unexpected audio timeline: plays=%v stops=%v", f.audio.plays, f.audio.stops)
	}
}

func equalDurations(a, b []time.Duration) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSpawnOnStartFalseIsPresentImmediately(t *testing.T) {
	f := newFixture()
	w := f.newWall(1, WallParams{Size: mgl64.Vec2{1, 1}, Delay: 5, Timing: 1})

	if !f.stage.Contains(1) {
		t.Fatal("Wall should be in the scene right after construction")
	}
	if w.State() != StateSpawned {
		t.Errorf("Expected spawned state, got %s", w.State())
	}
}

func TestNoDestroyWithoutDestroyOnComplete(t *testing.T) {
	f := newFixture()
	w := f.newWall(1, WallParams{Size: mgl64.Vec2{1, 1}, Delay: 0, Timing: 1})
	w.SetTargetPosition(mgl64.Vec3{1, 0, 0})
	for i := 0; i < 3; i++ {
		if err := w.AddTargetPosition(mgl64.Vec3{float64(i), 1, 0}, timeline.Override{}); err != nil {
			t.Fatal(err)
		}
	}

	destroyed := 0
	w.OnDestroyed(func() { destroyed++ })
	if err := w.Start(f.group); err != nil {
		t.Fatal(err)
	}
	f.runUntil(10*time.Second, nil)
	f.sched.fireAll()

	if w.Pending() != 0 {
		t.Errorf("All segments should have completed, pending=%d", w.Pending())
	}
	if destroyed != 0 || f.stage.releases[1] != 0 {
		t.Error("Wall without destroyOnComplete must never be destroyed")
	}
	if !f.stage.Contains(1) {
		t.Error("Wall should stay in the scene")
	}
}

func TestGraceDelayDisposal(t *testing.T) {
	f := newFixture()
	w := f.newWall(1, WallParams{Size: mgl64.Vec2{1, 1}, Delay: 0, Timing: 1})
	w.SetTargetPosition(mgl64.Vec3{1, 0, 0})
	w.SetDestroyOnComplete(true, 20)

	destroyed := 0
	w.OnDestroyed(func() { destroyed++ })
	if err := w.Start(f.group); err != nil {
		t.Fatal(err)
	}
	f.runUntil(3*time.Second, nil)

	if len(f.sched.delays) != 1 || f.sched.delays[0] != 20*time.Second {
		t.Fatalf("Expected one 20s grace timer, got %v", f.sched.delays)
	}
	if destroyed != 0 || w.State() != StateDisposing {
		t.Fatalf("Wall must not be destroyed before the grace delay, state=%s", w.State())
	}
	if !f.stage.Contains(1) {
		t.Error("Wall should remain visible during the grace delay")
	}

	// 重复触发只销毁一次
	f.sched.fireAll()
	f.sched.fireAll()

	if destroyed != 1 || f.stage.releases[1] != 1 {
		t.Errorf("Expected exactly one destruction, got %d (releases=%d)", destroyed, f.stage.releases[1])
	}
	if f.stage.Contains(1) {
		t.Error("Destroyed wall should be removed from the scene")
	}

	// 销毁后注册的监听器立即触发
	late := false
	w.OnDestroyed(func() { late = true })
	if !late {
		t.Error("Listener registered after destruction should fire immediately")
	}
}

func TestGraceDelayWithWallClock(t *testing.T) {
	f := newFixture()
	w := f.newWall(1, WallParams{
		Size:      mgl64.Vec2{1, 1},
		Delay:     0,
		Timing:    0.1,
		Scheduler: WallClock{},
	})
	w.SetTargetPosition(mgl64.Vec3{1, 0, 0})
	w.SetDestroyOnComplete(true, 0.02)
	if err := w.Start(f.group); err != nil {
		t.Fatal(err)
	}

	before := time.Now()
	f.group.Update(frame)
	if w.State() < StateDisposing {
		t.Fatalf("Expected disposal to begin after completion, got %s", w.State())
	}

	select {
	case <-w.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for disposal")
	}
	if elapsed := time.Since(before); elapsed < 20*time.Millisecond {
		t.Errorf("Disposal happened %v after completion, before the grace delay", elapsed)
	}
}

func TestSegmentsRunInAppendOrder(t *testing.T) {
	f := newFixture()
	w := f.newWall(1, WallParams{Size: mgl64.Vec2{10, 10}, Delay: 0.5, Timing: 1})
	w.SetTargetPosition(mgl64.Vec3{5, 0, 0})
	must(t, w.AddTargetScale(mgl64.Vec2{5, 5}, timeline.Override{Delay: timeline.Seconds(0)}))
	must(t, w.AddTargetRotation(mgl64.Vec3{0, 1, 0}, timeline.Override{Timing: timeline.Seconds(0)}))
	must(t, w.AddTargetPosition(mgl64.Vec3{0, 0, 5}, timeline.Override{Delay: timeline.Seconds(2)}))
	must(t, w.Start(f.group))

	segs := w.Chain().Segments()
	wantKinds := []timeline.Kind{timeline.KindPosition, timeline.KindScale, timeline.KindRotation, timeline.KindPosition}
	for i, k := range wantKinds {
		if segs[i].Kind() != k {
			t.Fatalf("Segment %d: expected %s, got %s", i, k, segs[i].Kind())
		}
	}

	f.runUntil(15*time.Second, func() {
		for i := 1; i < len(segs); i++ {
			if segs[i].IsStarted() && !segs[i-1].IsCompleted() {
				t.Fatalf("Segment %d started before segment %d completed", i, i-1)
			}
		}
	})
	for i, s := range segs {
		if !s.IsCompleted() {
			t.Errorf("Segment %d did not complete", i)
		}
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}

func TestSetTargetPositionOnlyOnce(t *testing.T) {
	f := newFixture()
	w := f.newWall(1, WallParams{Size: mgl64.Vec2{1, 1}, Timing: 1})

	if !w.SetTargetPosition(mgl64.Vec3{1, 2, 3}) {
		t.Fatal("First SetTargetPosition should apply")
	}
	if w.SetTargetPosition(mgl64.Vec3{9, 9, 9}) {
		t.Error("Second SetTargetPosition should be a no-op")
	}
	target, _ := w.Chain().Root().Target()
	if target != (mgl64.Vec3{1, 2, 3}) {
		t.Errorf("Target should be unchanged, got %v", target)
	}
	if w.Pending() != 1 {
		t.Errorf("Root should be counted once, pending=%d", w.Pending())
	}
}

func TestAddTargetPositionTargetsRootAtCurrentPosition(t *testing.T) {
	f := newFixture()
	w := f.newWall(1, WallParams{
		Size:     mgl64.Vec2{1, 1},
		Position: mgl64.Vec3{7, 0, 0},
		Timing:   1,
	})
	must(t, w.AddTargetPosition(mgl64.Vec3{8, 0, 0}, timeline.Override{}))

	target, ok := w.Chain().Root().Target()
	if !ok || target != (mgl64.Vec3{7, 0, 0}) {
		t.Errorf("Root should target the current position, got %v (%v)", target, ok)
	}
	if w.Pending() != 2 {
		t.Errorf("Expected pending 2, got %d", w.Pending())
	}
}

func TestScaleScenario(t *testing.T) {
	f := newFixture()
	w := f.newWall(1, WallParams{Size: mgl64.Vec2{1697, 780}, Delay: 0, Timing: 4})
	must(t, w.AddTargetScale(mgl64.Vec2{848.5, 780}, timeline.Override{Delay: timeline.Seconds(0), Timing: timeline.Seconds(3)}))
	must(t, w.Start(f.group))

	tr := w.Transform()
	f.runUntil(10*time.Second, func() {
		if tr.Scale.Z() != 1 {
			t.Fatalf("Scale Z must stay 1, got %f", tr.Scale.Z())
		}
		if tr.Scale.X() != w.Size().X() || tr.Scale.Y() != w.Size().Y() {
			t.Fatalf("Transform scale %v out of sync with size %v", tr.Scale, w.Size())
		}
	})

	if tr.Scale != (mgl64.Vec3{848.5, 780, 1}) {
		t.Errorf("Final scale should be exactly (848.5, 780, 1), got %v", tr.Scale)
	}
	if w.Size() != (mgl64.Vec2{848.5, 780}) {
		t.Errorf("Final size should be exactly the target, got %v", w.Size())
	}
}

func TestAudioAttachedWhileAnimating(t *testing.T) {
	f := newFixture()
	w := f.newWall(1, WallParams{Size: mgl64.Vec2{1, 1}, Delay: 0, Timing: 2, SpawnOnStart: true})
	w.SetTargetPosition(mgl64.Vec3{10, 0, 0})
	must(t, w.AddTargetRotation(mgl64.Vec3{0, 1, 0}, timeline.Override{Delay: timeline.Seconds(0)}))
	must(t, w.Start(f.group))

	f.runUntil(time.Second, nil)
	if w.State() != StateAnimating {
		t.Fatalf("Expected animating state, got %s", w.State())
	}
	w.SetAudio(f.audio)

	f.runUntil(5*time.Second, nil)

	if !equalDurations(f.audio.plays, []time.Duration{2 * time.Second}) {
		t.Errorf("Expected play at the rotation start (2s), got %v", f.audio.plays)
	}
	if !equalDurations(f.audio.stops, []time.Duration{4 * time.Second}) {
		t.Errorf("Expected stop at the rotation completion (4s), got %v", f.audio.stops)
	}
}

func TestAudioAsymmetry(t *testing.T) {
	f := newFixture()
	w := f.newWall(1, WallParams{Size: mgl64.Vec2{1, 1}, Position: mgl64.Vec3{3, 0, 0}, Timing: 1})
	// 位置不变：不播放
	w.SetTargetPosition(mgl64.Vec3{3, 0, 0})
	// 旋转不变：仍然播放
	must(t, w.AddTargetRotation(mgl64.Vec3{}, timeline.Override{}))
	// 位置不变：不播放
	must(t, w.AddTargetPosition(mgl64.Vec3{3, 0, 0}, timeline.Override{}))
	// 尺寸不变：仍然播放
	must(t, w.AddTargetScale(mgl64.Vec2{1, 1}, timeline.Override{}))
	w.SetAudio(f.audio)
	must(t, w.Start(f.group))

	f.runUntil(5*time.Second, nil)

	want := []time.Duration{1 * time.Second, 3 * time.Second}
	if !equalDurations(f.audio.plays, want) {
		t.Errorf("Expected plays at %v, got %v", want, f.audio.plays)
	}
}

func TestNoAudioIsSilentlySkipped(t *testing.T) {
	f := newFixture()
	w := f.newWall(1, WallParams{Size: mgl64.Vec2{1, 1}, Timing: 1})
	w.SetTargetPosition(mgl64.Vec3{1, 1, 1})
	must(t, w.AddTargetRotation(mgl64.Vec3{1, 0, 0}, timeline.Override{}))
	w.SetDestroyOnComplete(true, 0)
	must(t, w.Start(f.group))

	f.runUntil(3*time.Second, nil)
	if w.State() != StateDisposed {
		t.Errorf("Expected disposed state, got %s", w.State())
	}
}

// TestUntargetedRootDoesNotEndEarly 没有目标的根段不计数，不能提前销毁
func TestUntargetedRootDoesNotEndEarly(t *testing.T) {
	f := newFixture()
	w := f.newWall(1, WallParams{Size: mgl64.Vec2{1, 1}, Delay: 1, Timing: 0, SpawnOnStart: true})
	must(t, w.AddTargetRotation(mgl64.Vec3{0, 2, 0}, timeline.Override{Delay: timeline.Seconds(0), Timing: timeline.Seconds(1)}))
	w.SetDestroyOnComplete(true, 0)

	if w.Pending() != 1 {
		t.Fatalf("Only the rotation should be counted, pending=%d", w.Pending())
	}
	must(t, w.Start(f.group))

	f.runUntil(1500*time.Millisecond, nil)
	if w.State() == StateDisposed || w.State() == StateDisposing {
		t.Fatal("Wall destroyed when the untargeted root completed")
	}
	if got := f.stage.inserts[1]; len(got) != 1 || got[0] != time.Second {
		t.Errorf("Expected insertion at 1s, got %v", got)
	}

	f.runUntil(3*time.Second, nil)
	if at := f.stage.released[1]; at != 2*time.Second {
		t.Errorf("Expected disposal at 2s, got %v", at)
	}
}

func TestAppendAfterStartFails(t *testing.T) {
	f := newFixture()
	w := f.newWall(1, WallParams{Size: mgl64.Vec2{1, 1}, Timing: 1})
	w.SetTargetPosition(mgl64.Vec3{1, 0, 0})
	must(t, w.Start(f.group))

	if err := w.AddTargetRotation(mgl64.Vec3{}, timeline.Override{}); !errors.Is(err, timeline.ErrChainStarted) {
		t.Errorf("Expected ErrChainStarted, got %v", err)
	}
	if err := w.Start(f.group); !errors.Is(err, timeline.ErrChainStarted) {
		t.Errorf("Second Start should fail, got %v", err)
	}
	if w.Pending() != 1 {
		t.Errorf("Rejected append must not change pending, got %d", w.Pending())
	}
}

func TestStateString(t *testing.T) {
	states := map[State]string{
		StatePending:   "pending",
		StateSpawned:   "spawned",
		StateAnimating: "animating",
		StateDisposing: "disposing",
		StateDisposed:  "disposed",
		State(42):      "unknown",
	}
	for s, want := range states {
		if s.String() != want {
			t.Errorf("State(%d).String() = %q, want %q", int(s), s.String(), want)
		}
	}
}
