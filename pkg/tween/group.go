package tween

import "time"

// Group 动画时间源
//
// 持有一个逻辑时钟和所有正在播放的 Tween。
// 每帧调用一次 Update(dt)，不做任何阻塞或抢占。
// Group 不是并发安全的：只能在主循环中使用。
type Group struct {
	now    time.Duration
	active []*Tween
}

// NewGroup 创建一个时钟为 0 的 Group
func NewGroup() *Group {
	return &Group{
		active: make([]*Tween, 0, 16),
	}
}

// Now 返回组时钟
func (g *Group) Now() time.Duration {
	return g.now
}

// Len 返回正在播放（含延迟中）的 Tween 数量
func (g *Group) Len() int {
	return len(g.active)
}

// RemoveAll 停止所有 Tween（不触发任何回调）
func (g *Group) RemoveAll() {
	for _, t := range g.active {
		t.playing = false
	}
	g.active = g.active[:0]
}

func (g *Group) add(t *Tween) {
	g.active = append(g.active, t)
}

// Update 推进组时钟 dt 并驱动所有 Tween
//
// 串联的后继在前驱完成时以前驱的逻辑结束时刻启动，
// 并在同一次 Update 中继续推进，因此链上的时间不会因帧粒度而漂移。
func (g *Group) Update(dt time.Duration) {
	if dt > 0 {
		g.now += dt
	}

	// 回调中可能启动新的 Tween，按下标遍历以包含新加入的元素
	for i := 0; i < len(g.active); i++ {
		g.active[i].step(g.now)
	}

	kept := g.active[:0]
	for _, t := range g.active {
		if t.playing {
			kept = append(kept, t)
		}
	}
	for i := len(kept); i < len(g.active); i++ {
		g.active[i] = nil
	}
	g.active = kept
}
