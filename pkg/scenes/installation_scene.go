package scenes

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/decker502/void/pkg/choreo"
	"github.com/decker502/void/pkg/components"
	"github.com/decker502/void/pkg/config"
	"github.com/decker502/void/pkg/ecs"
	"github.com/decker502/void/pkg/game"
	"github.com/decker502/void/pkg/scene"
	"github.com/decker502/void/pkg/systems"
	"github.com/decker502/void/pkg/tween"
)

// InstallationOptions 创建展览场景所需的依赖
type InstallationOptions struct {
	Viewer    *config.ViewerConfig
	Walls     []config.WallSpec
	Resources *game.ResourceManager
	Audio     *game.AudioManager    // 可为 nil（无音效）
	Settings  *game.SettingsManager // 可为 nil
	Pointer   systems.PointerInput  // 可为 nil（使用鼠标）
	Debug     bool
}

// InstallationScene 墙体展览场景
//
// 所有墙体、相机轨道共用一个动画组，动画时钟只在 Start 之后推进。
// 音效在后台加载，每帧非阻塞地取出已加载的音效挂到对应墙体上。
type InstallationScene struct {
	viewer   *config.ViewerConfig
	settings *game.SettingsManager

	entityManager *ecs.EntityManager
	graph         *scene.Graph
	camera        *scene.Camera
	group         *tween.Group
	scheduler     *choreo.MainThreadScheduler
	choreograph   *choreo.Choreograph

	rig      *systems.CameraRigSystem
	controls *systems.ControlsSystem
	audioSys *systems.AudioSystem
	render   *systems.RenderSystem
	hud      *systems.HUDSystem

	soundBatch *game.SoundBatch
	sounds     <-chan game.LoadedSound

	started  bool
	finished bool
	height   int
}

// NewInstallationScene 按编排创建展览场景（尚未开始播放）
func NewInstallationScene(opts InstallationOptions) (*InstallationScene, error) {
	if opts.Viewer == nil {
		opts.Viewer = config.DefaultViewerConfig()
	}
	if opts.Resources == nil {
		return nil, fmt.Errorf("resource manager is required")
	}

	em := ecs.NewEntityManager()
	graph := scene.NewGraph(em)
	cam := scene.NewCamera(opts.Viewer.Camera.Fov, opts.Viewer.Camera.Near, opts.Viewer.Camera.Far)

	s := &InstallationScene{
		viewer:        opts.Viewer,
		settings:      opts.Settings,
		entityManager: em,
		graph:         graph,
		camera:        cam,
		group:         tween.NewGroup(),
		scheduler:     choreo.NewMainThreadScheduler(),
		height:        opts.Viewer.Window.Height,
	}

	rig, err := systems.NewCameraRigSystem(graph.Root(), opts.Viewer)
	if err != nil {
		return nil, fmt.Errorf("failed to create camera rig: %w", err)
	}
	s.rig = rig

	factory := func(spec config.WallSpec) (ecs.EntityID, *components.TransformComponent, error) {
		mesh := components.NewPlaneMesh(opts.Resources.NewMaterial(spec.Texture))
		transform := components.NewTransform(spec.Position, spec.Size)
		return graph.CreateNode(spec.Name, mesh, transform), transform, nil
	}
	c, err := choreo.NewChoreograph(graph, opts.Walls, factory,
		choreo.WithScheduler(s.scheduler),
		choreo.WithDebug(opts.Debug || opts.Viewer.DebugMode),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build choreography: %w", err)
	}
	s.choreograph = c

	s.controls = systems.NewControlsSystem(cam, opts.Pointer, opts.Viewer)
	s.audioSys = systems.NewAudioSystem(graph, cam)
	s.render = systems.NewRenderSystem(graph, cam, opts.Viewer.Mirror)

	showHUD := opts.Debug || opts.Viewer.DebugMode
	if opts.Settings != nil {
		showHUD = showHUD || opts.Settings.GetSettings().ShowHUD
	}
	s.hud = systems.NewHUDSystem(showHUD)

	if opts.Audio != nil {
		names := make(map[string]string, len(opts.Walls))
		for _, spec := range opts.Walls {
			names[spec.Name] = spec.Sound
		}
		s.soundBatch = opts.Audio.LoadWallSounds(context.Background(), names)
		s.sounds = s.soundBatch.Sounds()
	}

	log.Printf("[InstallationScene] Created with %d walls", c.Len())
	return s, nil
}

// Start 开始播放编排与相机轨道，重复调用无操作
func (s *InstallationScene) Start() error {
	if s.started {
		return nil
	}
	if err := s.choreograph.Start(s.group); err != nil {
		return err
	}
	if err := s.rig.Start(s.group); err != nil {
		return err
	}
	s.started = true
	log.Printf("[InstallationScene] Started")
	return nil
}

// Started 是否已开始
func (s *InstallationScene) Started() bool { return s.started }

// Finished 所有会销毁的墙体是否都已销毁
func (s *InstallationScene) Finished() bool { return s.finished }

// Choreograph 返回墙体编排
func (s *InstallationScene) Choreograph() *choreo.Choreograph { return s.choreograph }

// Graph 返回场景图
func (s *InstallationScene) Graph() *scene.Graph { return s.graph }

// Camera 返回相机
func (s *InstallationScene) Camera() *scene.Camera { return s.camera }

// HUD 返回调试信息系统
func (s *InstallationScene) HUD() *systems.HUDSystem { return s.hud }

// Update 推进一帧
func (s *InstallationScene) Update(deltaTime float64) {
	s.attachLoadedSounds()
	s.scheduler.RunPending()

	if s.started {
		s.group.Update(time.Duration(deltaTime * float64(time.Second)))
	}

	s.controls.Update(deltaTime, s.height)
	s.audioSys.Update(deltaTime)
	s.entityManager.RemoveMarkedEntities()

	if s.started && !s.finished {
		select {
		case <-s.choreograph.Done():
			s.finished = true
			log.Printf("[InstallationScene] All walls finished at %.1fs", s.group.Now().Seconds())
		default:
		}
	}
}

// attachLoadedSounds 非阻塞地取出已加载的音效
func (s *InstallationScene) attachLoadedSounds() {
	if s.sounds == nil {
		return
	}
	for {
		select {
		case loaded, ok := <-s.sounds:
			if !ok {
				s.sounds = nil
				return
			}
			s.attachSound(loaded)
		default:
			return
		}
	}
}

func (s *InstallationScene) attachSound(loaded game.LoadedSound) {
	wall, ok := s.choreograph.Wall(loaded.Name)
	if !ok || !s.choreograph.AttachAudio(loaded.Name, loaded.Sound) {
		log.Printf("[InstallationScene] Sound for %s arrived after the wall was destroyed", loaded.Name)
		loaded.Sound.Close()
		return
	}
	s.entityManager.AddComponent(wall.ID(), &components.SoundComponent{Source: loaded.Sound})
}

// Draw 绘制墙体与 HUD
func (s *InstallationScene) Draw(screen *ebiten.Image) {
	s.height = screen.Bounds().Dy()
	s.render.Draw(screen)
	s.hud.Draw(screen, s.hudInfo())
}

func (s *InstallationScene) hudInfo() systems.HUDInfo {
	info := systems.HUDInfo{
		Elapsed:      s.group.Now(),
		Started:      s.started,
		TotalWalls:   len(s.choreograph.All()),
		RigRemaining: s.rig.Remaining(),
	}
	for _, w := range s.choreograph.Walls() {
		info.LiveWalls++
		info.Pending += w.Pending()
	}
	if s.settings != nil {
		st := s.settings.GetSettings()
		info.SoundEnabled = st.SoundEnabled
		info.Volume = st.MasterVolume
	}
	return info
}

// Close 停止加载与播放，释放所有墙体
func (s *InstallationScene) Close() {
	s.group.RemoveAll()
	if s.soundBatch != nil {
		s.soundBatch.Close()
	}
	for _, w := range s.choreograph.All() {
		s.graph.Release(w.ID())
	}
	s.entityManager.RemoveMarkedEntities()
	log.Printf("[InstallationScene] Closed")
}
