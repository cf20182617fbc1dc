package game

import (
	"log"
	"math"
)

// soundPlayer 是 *audio.Player 中用到的部分
type soundPlayer interface {
	Play()
	Pause()
	IsPlaying() bool
	Rewind() error
	SetVolume(volume float64)
	Close() error
}

// PositionalSound 挂在墙体上的位置音效
//
// 实现 choreo.AudioHandle（Play/Stop/IsPlaying/SetLoop）和
// components.SpatialSource（SetListenerDistance）。
// 音量 = 距离衰减 × 基础音量 × 主音量。
// 只在主循环中使用。
type PositionalSound struct {
	name      string
	newPlayer func(loop bool) (soundPlayer, error)
	player    soundPlayer
	loop      bool

	volume      float64 // 基础音量
	refDistance float64
	rolloff     float64
	master      float64
	distance    float64
}

func newPositionalSound(name string, newPlayer func(loop bool) (soundPlayer, error)) *PositionalSound {
	return &PositionalSound{
		name:        name,
		newPlayer:   newPlayer,
		volume:      1,
		refDistance: 1,
		rolloff:     1,
		master:      1,
	}
}

// Configure 设置基础音量、参考距离与衰减系数
func (s *PositionalSound) Configure(volume, refDistance, rolloff float64) {
	s.volume = clampVolume(volume)
	s.refDistance = refDistance
	s.rolloff = rolloff
	s.applyVolume()
}

// Name 返回音效名称
func (s *PositionalSound) Name() string {
	return s.name
}

// Play 从当前位置开始播放（Stop 之后从头开始）
func (s *PositionalSound) Play() {
	if s.player == nil {
		player, err := s.newPlayer(s.loop)
		if err != nil {
			log.Printf("[PositionalSound] Warning: Failed to create player for %s: %v", s.name, err)
			return
		}
		s.player = player
	}
	s.player.SetVolume(s.Gain())
	s.player.Play()
}

// Stop 停止并回到开头
func (s *PositionalSound) Stop() {
	if s.player == nil {
		return
	}
	s.player.Pause()
	if err := s.player.Rewind(); err != nil {
		log.Printf("[PositionalSound] Warning: Failed to rewind %s: %v", s.name, err)
	}
}

// IsPlaying 是否正在播放
func (s *PositionalSound) IsPlaying() bool {
	return s.player != nil && s.player.IsPlaying()
}

// SetLoop 设置是否循环
// 正在播放时不打断当前播放，下次 Play 生效
func (s *PositionalSound) SetLoop(loop bool) {
	if s.loop == loop {
		return
	}
	s.loop = loop
	if s.player != nil && !s.player.IsPlaying() {
		s.player.Close()
		s.player = nil
	}
}

// Loop 是否循环
func (s *PositionalSound) Loop() bool {
	return s.loop
}

// SetListenerDistance 更新与听者的距离
func (s *PositionalSound) SetListenerDistance(d float64) {
	s.distance = d
	s.applyVolume()
}

// SetMasterVolume 设置主音量（静音时为 0）
func (s *PositionalSound) SetMasterVolume(v float64) {
	s.master = clampVolume(v)
	s.applyVolume()
}

// Gain 当前实际音量
func (s *PositionalSound) Gain() float64 {
	return InverseDistanceGain(s.distance, s.refDistance, s.rolloff) * s.volume * s.master
}

func (s *PositionalSound) applyVolume() {
	if s.player != nil {
		s.player.SetVolume(s.Gain())
	}
}

// Close 释放播放器
func (s *PositionalSound) Close() {
	if s.player != nil {
		s.player.Pause()
		s.player.Close()
		s.player = nil
	}
}

// InverseDistanceGain 反距离衰减
//
//	ref / (ref + rolloff * (max(d, ref) - ref))
//
// 距离小于参考距离时不衰减。
func InverseDistanceGain(d, ref, rolloff float64) float64 {
	if ref <= 0 {
		return 1
	}
	d = math.Max(d, ref)
	return ref / (ref + rolloff*(d-ref))
}
