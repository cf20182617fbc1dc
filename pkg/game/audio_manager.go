package game

import (
	"context"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/decker502/void/pkg/config"
)

// LoadedSound 异步加载完成的墙体音效
type LoadedSound struct {
	Name  string // 墙体名称
	Sound *PositionalSound
}

// SoundBatch 一次 LoadWallSounds 调用加载的音效
//
// 每个场景持有自己的批次，Close 只释放本批次的音效，
// 新旧场景交替时互不影响。
type SoundBatch struct {
	am     *AudioManager
	cancel context.CancelFunc
	out    chan LoadedSound

	mu     sync.Mutex
	sounds []*PositionalSound
	closed bool
}

// Sounds 加载完成的音效，全部加载结束（或批次关闭）后通道关闭
// 调用方应在主循环中逐帧非阻塞地读取。
func (b *SoundBatch) Sounds() <-chan LoadedSound {
	return b.out
}

// Len 本批次当前持有的音效数量
func (b *SoundBatch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sounds)
}

// track 登记新加载的音效，批次已关闭时返回 false
func (b *SoundBatch) track(s *PositionalSound) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return false
	}
	b.sounds = append(b.sounds, s)
	return true
}

func (b *SoundBatch) snapshot() []*PositionalSound {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*PositionalSound(nil), b.sounds...)
}

// Close 取消未完成的加载，停止并释放本批次的音效
// 可重复调用。
func (b *SoundBatch) Close() {
	b.cancel()
	b.am.forget(b)

	b.mu.Lock()
	sounds := b.sounds
	b.sounds = nil
	b.closed = true
	b.mu.Unlock()

	for _, s := range sounds {
		s.Close()
	}
}

// AudioManager 音频管理器
// 职责：
//   - 并行加载墙体音效（加载失败只记日志，墙体照常运行）
//   - 把 SettingsManager 中的主音量与静音开关应用到所有批次的音效
type AudioManager struct {
	resourceManager *ResourceManager
	settingsManager *SettingsManager // 可为 nil
	viewer          *config.ViewerConfig
	load            func(path string) (*PositionalSound, error)

	mu      sync.Mutex
	batches map[*SoundBatch]struct{}
}

// NewAudioManager 创建新的音频管理器
//
// 参数：
//   - rm: ResourceManager 实例（用于加载音频文件）
//   - sm: SettingsManager 实例（用于读取音量设置，可为 nil）
//   - viewer: 查看器配置（音效路径、参考距离、衰减系数）
func NewAudioManager(rm *ResourceManager, sm *SettingsManager, viewer *config.ViewerConfig) *AudioManager {
	if viewer == nil {
		viewer = config.DefaultViewerConfig()
	}
	return &AudioManager{
		resourceManager: rm,
		settingsManager: sm,
		viewer:          viewer,
		load:            rm.LoadLoopedSound,
		batches:         make(map[*SoundBatch]struct{}),
	}
}

// LoadWallSounds 为每面墙并行加载循环音效
//
// sounds 为 墙体名 -> 音效名。只投递成功加载的音效。
// 返回的批次由调用方在场景结束时 Close。
func (am *AudioManager) LoadWallSounds(ctx context.Context, sounds map[string]string) *SoundBatch {
	ctx, cancel := context.WithCancel(ctx)
	batch := &SoundBatch{
		am:     am,
		cancel: cancel,
		out:    make(chan LoadedSound, len(sounds)),
	}
	am.mu.Lock()
	am.batches[batch] = struct{}{}
	am.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for wall, sound := range sounds {
		wall := wall
		path := am.viewer.SoundPath(sound)
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			s, err := am.load(path)
			if err != nil {
				log.Printf("[AudioManager] Warning: wall %s has no sound: %v", wall, err)
				return nil
			}
			s.Configure(am.viewer.Audio.Volume, am.viewer.RefDistance(), am.viewer.Audio.Rolloff)
			if !batch.track(s) {
				s.Close()
				return nil
			}
			s.SetMasterVolume(am.masterVolume())

			select {
			case batch.out <- LoadedSound{Name: wall, Sound: s}:
			case <-ctx.Done():
			}
			return nil
		})
	}

	go func() {
		_ = g.Wait()
		close(batch.out)
	}()
	return batch
}

func (am *AudioManager) forget(b *SoundBatch) {
	am.mu.Lock()
	delete(am.batches, b)
	am.mu.Unlock()
}

// masterVolume 当前主音量（静音时为 0）
func (am *AudioManager) masterVolume() float64 {
	if am.settingsManager == nil {
		return 1
	}
	return am.settingsManager.GetSettings().EffectiveVolume()
}

// ApplySettings 把当前设置的主音量应用到所有已加载音效
func (am *AudioManager) ApplySettings() {
	v := am.masterVolume()
	am.mu.Lock()
	batches := make([]*SoundBatch, 0, len(am.batches))
	for b := range am.batches {
		batches = append(batches, b)
	}
	am.mu.Unlock()

	for _, b := range batches {
		for _, s := range b.snapshot() {
			s.SetMasterVolume(v)
		}
	}
}

// ToggleMute 切换静音并立即生效，返回切换后是否有声
func (am *AudioManager) ToggleMute() bool {
	if am.settingsManager == nil {
		return true
	}
	enabled := !am.settingsManager.GetSettings().SoundEnabled
	am.settingsManager.SetSoundEnabled(enabled)
	am.ApplySettings()
	log.Printf("[AudioManager] Sound enabled: %v", enabled)
	return enabled
}

// StopAll 释放所有批次（退出程序时调用）
func (am *AudioManager) StopAll() {
	am.mu.Lock()
	batches := make([]*SoundBatch, 0, len(am.batches))
	for b := range am.batches {
		batches = append(batches, b)
	}
	am.mu.Unlock()

	for _, b := range batches {
		b.Close()
	}
}
