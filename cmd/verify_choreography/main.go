// verify_choreography 无窗口地模拟一次完整编排，按时间顺序打印
// 每面墙的进场、音效、段完成与销毁事件。
//
// 用法：
//
//	go run ./cmd/verify_choreography
//	go run ./cmd/verify_choreography --choreography my.yaml --until 180
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/decker502/void/pkg/choreo"
	"github.com/decker502/void/pkg/components"
	"github.com/decker502/void/pkg/config"
	"github.com/decker502/void/pkg/ecs"
	"github.com/decker502/void/pkg/tween"
)

var (
	viewerPath       = flag.String("viewer", "data/viewer.yaml", "查看器配置文件路径")
	choreographyPath = flag.String("choreography", "data/choreography.yaml", "编排配置文件路径")
	frame            = flag.Duration("frame", time.Second/60, "模拟帧间隔")
	until            = flag.Float64("until", 300, "最长模拟时间（秒）")
	verbose          = flag.Bool("verbose", false, "打印墙体调试日志")
)

// simClock 模拟时钟：动画组的时间即当前时间
type simClock struct {
	group *tween.Group
}

func (c simClock) now() time.Duration { return c.group.Now() }

// timer 模拟的宽限定时器
type timer struct {
	due time.Duration
	fn  func()
}

// simScheduler 在模拟时钟上触发宽限定时器
type simScheduler struct {
	clock  simClock
	timers []timer
}

func (s *simScheduler) AfterFunc(d time.Duration, f func()) {
	s.timers = append(s.timers, timer{due: s.clock.now() + d, fn: f})
}

// runDue 执行到期的定时器
func (s *simScheduler) runDue() {
	now := s.clock.now()
	var rest []timer
	var due []timer
	for _, t := range s.timers {
		if t.due <= now {
			due = append(due, t)
		} else {
			rest = append(rest, t)
		}
	}
	s.timers = rest
	sort.SliceStable(due, func(i, j int) bool { return due[i].due < due[j].due })
	for _, t := range due {
		t.fn()
	}
}

// event 一条时间线事件
type event struct {
	at   time.Duration
	wall string
	what string
}

// recorder 记录事件，同时实现 Stage
type recorder struct {
	clock   simClock
	names   map[ecs.EntityID]string
	inScene map[ecs.EntityID]bool
	events  []event
}

func (r *recorder) add(id ecs.EntityID, what string) {
	r.events = append(r.events, event{at: r.clock.now(), wall: r.names[id], what: what})
}

func (r *recorder) Insert(id ecs.EntityID) {
	if !r.inScene[id] {
		r.inScene[id] = true
		r.add(id, "spawn")
	}
}

func (r *recorder) Remove(id ecs.EntityID) {
	if r.inScene[id] {
		delete(r.inScene, id)
		r.add(id, "remove")
	}
}

func (r *recorder) Contains(id ecs.EntityID) bool { return r.inScene[id] }

func (r *recorder) Release(id ecs.EntityID) { r.add(id, "release") }

// simAudio 记录播放/停止
type simAudio struct {
	rec     *recorder
	id      ecs.EntityID
	playing bool
}

func (a *simAudio) Play() {
	if !a.playing {
		a.playing = true
		a.rec.add(a.id, "sound on")
	}
}

func (a *simAudio) Stop() {
	if a.playing {
		a.playing = false
		a.rec.add(a.id, "sound off")
	}
}

func (a *simAudio) IsPlaying() bool   { return a.playing }
func (a *simAudio) SetLoop(loop bool) {}

func main() {
	flag.Parse()
	if !*verbose {
		log.SetOutput(io.Discard)
	}

	viewer, err := config.LoadViewerConfig(*viewerPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	choreography, err := config.LoadChoreographyConfig(*choreographyPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	specs, err := choreography.Resolve(viewer.Env())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	group := tween.NewGroup()
	clock := simClock{group: group}
	rec := &recorder{
		clock:   clock,
		names:   make(map[ecs.EntityID]string),
		inScene: make(map[ecs.EntityID]bool),
	}
	sched := &simScheduler{clock: clock}

	em := ecs.NewEntityManager()
	factory := func(spec config.WallSpec) (ecs.EntityID, *components.TransformComponent, error) {
		id := em.CreateEntity()
		rec.names[id] = spec.Name
		return id, components.NewTransform(spec.Position, spec.Size), nil
	}

	c, err := choreo.NewChoreograph(rec, specs, factory, choreo.WithScheduler(sched), choreo.WithDebug(*verbose))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	for _, w := range c.All() {
		c.AttachAudio(w.Name(), &simAudio{rec: rec, id: w.ID()})
	}

	if err := c.Start(group); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	limit := time.Duration(*until * float64(time.Second))
	finished := false
	for group.Now() < limit {
		group.Update(*frame)
		sched.runDue()
		select {
		case <-c.Done():
			finished = true
		default:
		}
		if finished {
			break
		}
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tWALL\tEVENT")
	for _, e := range rec.events {
		fmt.Fprintf(tw, "%7.2fs\t%s\t%s\n", e.at.Seconds(), e.wall, e.what)
	}
	tw.Flush()

	fmt.Println()
	fmt.Printf("Walls: %d created, %d remaining\n", len(c.All()), c.Len())
	if finished {
		fmt.Printf("All destroy-on-complete walls gone at %.2fs\n", group.Now().Seconds())
	} else {
		fmt.Printf("Not finished after %.0fs\n", limit.Seconds())
		os.Exit(2)
	}
}
