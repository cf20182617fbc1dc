// Package app 提供查看器应用的核心包装器
//
// 该包将初始化逻辑从 main 包提取出来，使其可以被桌面端和移动端共用。
// 桌面端通过 main.go 调用 NewApp()，移动端通过 mobile/mobile.go 调用。
package app

import (
	"fmt"
	"image/color"
	"io"
	"log"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/quasilyte/gdata/v2"

	"github.com/decker502/void/pkg/config"
	"github.com/decker502/void/pkg/game"
	"github.com/decker502/void/pkg/scenes"
	"github.com/decker502/void/pkg/utils"
)

// 默认配置路径（磁盘优先，其次为嵌入的 data/）
const (
	DefaultViewerPath       = "data/viewer.yaml"
	DefaultChoreographyPath = "data/choreography.yaml"
)

// Config 定义应用启动配置
type Config struct {
	// Verbose 启用详细日志输出
	Verbose bool
	// ViewerPath 查看器配置路径
	ViewerPath string
	// ChoreographyPath 编排配置路径
	ChoreographyPath string
	// Watch 监视编排文件，修改后重新构建场景
	Watch bool
	// AutoStart 不等待按键，立即开始
	AutoStart bool
	// Debug 打开墙体调试日志与 HUD
	Debug bool
}

// App 是查看器应用的核心包装器，实现 ebiten.Game 接口
type App struct {
	cfg      Config
	viewer   *config.ViewerConfig
	settings *game.SettingsManager
	audio    *game.AudioManager

	sceneManager *game.SceneManager
	watcher      *config.Watcher

	pendingWindowSizeReset   bool // 延迟设置窗口大小标志
	windowSizeResetCountdown int  // 延迟帧数
}

// NewApp 创建并初始化查看器应用
//
// 调用此函数前，必须先调用 embedded.Init() 初始化嵌入配置。
func NewApp(cfg Config) (*App, error) {
	// 配置日志输出
	if !cfg.Verbose {
		log.SetOutput(io.Discard)
		log.SetFlags(0)
	}
	if cfg.ViewerPath == "" {
		cfg.ViewerPath = DefaultViewerPath
	}
	if cfg.ChoreographyPath == "" {
		cfg.ChoreographyPath = DefaultChoreographyPath
	}

	viewer, err := config.LoadViewerConfig(cfg.ViewerPath)
	if err != nil {
		return nil, fmt.Errorf("查看器配置加载失败: %w", err)
	}
	log.Printf("[App] Viewer config loaded from %s", cfg.ViewerPath)

	// 设置持久化失败时降级为仅内存设置
	if err := utils.EnsureStorageDir(); err != nil {
		log.Printf("[App] Warning: %v", err)
	}
	gdataManager, err := gdata.Open(gdata.Config{AppName: "void"})
	if err != nil {
		log.Printf("[App] Warning: gdata unavailable: %v (settings will not persist)", err)
		gdataManager = nil
	}
	settings := game.NewSettingsManager(gdataManager)

	sampleRate := viewer.Audio.SampleRate
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	audioContext := audio.NewContext(sampleRate)
	resourceManager := game.NewResourceManager(audioContext, viewer)
	audioManager := game.NewAudioManager(resourceManager, settings, viewer)

	a := &App{
		cfg:          cfg,
		viewer:       viewer,
		settings:     settings,
		audio:        audioManager,
		sceneManager: game.NewSceneManager(),
	}

	a.sceneManager.SetSceneFactory(func() (game.Scene, error) {
		choreography, err := config.LoadChoreographyConfig(cfg.ChoreographyPath)
		if err != nil {
			return nil, err
		}
		walls, err := choreography.Resolve(viewer.Env())
		if err != nil {
			return nil, err
		}
		s, err := scenes.NewInstallationScene(scenes.InstallationOptions{
			Viewer:    viewer,
			Walls:     walls,
			Resources: resourceManager,
			Audio:     audioManager,
			Settings:  settings,
			Debug:     cfg.Debug,
		})
		if err != nil {
			return nil, err
		}
		if cfg.AutoStart {
			if err := s.Start(); err != nil {
				return nil, err
			}
		}
		return s, nil
	})

	if err := a.sceneManager.Reload(); err != nil {
		return nil, fmt.Errorf("编排加载失败: %w", err)
	}

	if cfg.Watch {
		w, err := config.NewWatcher(filepath.Dir(cfg.ChoreographyPath))
		if err != nil {
			log.Printf("[App] Warning: config watcher unavailable: %v", err)
		} else {
			a.watcher = w
		}
	}

	if settings.GetSettings().Fullscreen {
		ebiten.SetFullscreen(true)
	}
	return a, nil
}

// Update 更新逻辑
// 每个 tick 调用一次（通常每秒 60 次）
func (a *App) Update() error {
	// 延迟设置窗口大小（退出全屏后需要等待几帧才能正确设置）
	if a.pendingWindowSizeReset {
		a.windowSizeResetCountdown--
		if a.windowSizeResetCountdown <= 0 {
			ebiten.SetWindowSize(a.viewer.Window.Width, a.viewer.Window.Height)
			a.pendingWindowSizeReset = false
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		a.Close()
		return ebiten.Termination
	}

	// F11 切换全屏
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		a.toggleFullscreen()
	}

	// M 静音
	if inpututil.IsKeyJustPressed(ebiten.KeyM) {
		a.audio.ToggleMute()
		a.saveSettings()
	}

	// H 调试信息
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		show := !a.settings.GetSettings().ShowHUD
		a.settings.SetShowHUD(show)
		if s, ok := a.installation(); ok {
			s.HUD().SetVisible(show || a.cfg.Debug)
		}
		a.saveSettings()
	}

	// Space 开始；播放结束后重新开始
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		a.handleSpace()
	}

	a.pollWatcher()

	deltaTime := 1.0 / float64(ebiten.TPS())
	a.sceneManager.Update(deltaTime)
	return nil
}

func (a *App) installation() (*scenes.InstallationScene, bool) {
	s, ok := a.sceneManager.GetCurrentScene().(*scenes.InstallationScene)
	return s, ok
}

func (a *App) handleSpace() {
	s, ok := a.installation()
	if !ok {
		return
	}
	if !s.Started() {
		if err := s.Start(); err != nil {
			log.Printf("[App] Failed to start: %v", err)
		}
		return
	}
	if s.Finished() {
		a.restart()
	}
}

// restart 重新读取编排并重建场景，失败时保留当前场景
func (a *App) restart() {
	if err := a.sceneManager.Reload(); err != nil {
		log.Printf("[App] Reload failed: %v", err)
		return
	}
	if s, ok := a.installation(); ok && !s.Started() && !a.cfg.AutoStart {
		// 重启即开始，不再等待第二次按键
		if err := s.Start(); err != nil {
			log.Printf("[App] Failed to start: %v", err)
		}
	}
}

func (a *App) pollWatcher() {
	if a.watcher == nil {
		return
	}
	for {
		select {
		case path := <-a.watcher.Events:
			if filepath.Base(path) != filepath.Base(a.cfg.ChoreographyPath) {
				continue
			}
			log.Printf("[App] %s changed, rebuilding installation", path)
			a.restart()
		case err := <-a.watcher.Errors:
			log.Printf("[App] Watcher error: %v", err)
		default:
			return
		}
	}
}

func (a *App) toggleFullscreen() {
	if ebiten.IsFullscreen() {
		// 退出全屏
		ebiten.SetFullscreen(false)
		if ebiten.IsWindowMaximized() || ebiten.IsWindowMinimized() {
			ebiten.RestoreWindow()
		}
		// 延迟几帧后设置窗口大小，让窗口管理器有时间处理
		a.pendingWindowSizeReset = true
		a.windowSizeResetCountdown = 3
		a.settings.SetFullscreen(false)
	} else {
		ebiten.SetFullscreen(true)
		a.settings.SetFullscreen(true)
	}
	a.saveSettings()
}

func (a *App) saveSettings() {
	if err := a.settings.Save(); err != nil {
		log.Printf("[App] Warning: %v", err)
	}
}

// Draw 绘制画面
func (a *App) Draw(screen *ebiten.Image) {
	a.sceneManager.Draw(screen)
}

// DrawFinalScreen 实现 FinalScreenDrawer 接口
// 用于控制全屏时的缩放和 letterbox 颜色
func (a *App) DrawFinalScreen(screen ebiten.FinalScreen, offscreen *ebiten.Image, geoM ebiten.GeoM) {
	screen.Fill(color.Black)
	op := &ebiten.DrawImageOptions{}
	op.GeoM = geoM
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(offscreen, op)
}

// Layout 逻辑屏幕尺寸跟随窗口，投影按实际宽高比计算
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

// Viewer 返回查看器配置
func (a *App) Viewer() *config.ViewerConfig {
	return a.viewer
}

// Close 关闭场景与配置监视
func (a *App) Close() {
	a.sceneManager.Close()
	if a.audio != nil {
		a.audio.StopAll()
	}
	if a.watcher != nil {
		a.watcher.Close()
		a.watcher = nil
	}
}
