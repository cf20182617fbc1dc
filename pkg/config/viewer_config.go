package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/decker502/void/pkg/embedded"
)

// 场景位置名称
const (
	ScenePositionStart   = "start"
	ScenePositionBetween = "between"
	ScenePositionEnd     = "end"
)

// PanDirection 空闲时自动平移的方向
type PanDirection string

const (
	PanNone  PanDirection = "none"
	PanUp    PanDirection = "up"
	PanDown  PanDirection = "down"
	PanLeft  PanDirection = "left"
	PanRight PanDirection = "right"
)

// Valid 是否为已知方向
func (p PanDirection) Valid() bool {
	switch p {
	case PanNone, PanUp, PanDown, PanLeft, PanRight:
		return true
	}
	return false
}

// ViewerConfig 展览查看器配置
//
// 墙体尺寸以原始单位配置，乘以 SceneScale 后得到场景单位。
//
// 配置文件位置: data/viewer.yaml
type ViewerConfig struct {
	SceneScale           float64      `yaml:"sceneScale"`
	Wall                 WallDims     `yaml:"wall"`
	SceneTiming          float64      `yaml:"sceneTiming"`
	SceneStartDelay      float64      `yaml:"sceneStartDelay"`
	ReflectorTextureSize int          `yaml:"reflectorTextureSize"`
	AudioEnhancement     float64      `yaml:"audioEnhancement"`
	PanDirection         PanDirection `yaml:"panDirection"`
	DebugMode            bool         `yaml:"debugMode"`

	Window WindowConfig `yaml:"window"`
	Camera CameraConfig `yaml:"camera"`
	Audio  AudioConfig  `yaml:"audio"`
	Mirror MirrorConfig `yaml:"mirror"`
	Assets AssetsConfig `yaml:"assets"`
}

// WallDims 原始墙体尺寸（未缩放）
type WallDims struct {
	Height float64 `yaml:"height"`
	Width  float64 `yaml:"width"`
	Depth  float64 `yaml:"depth"`
}

// WindowConfig 窗口配置
type WindowConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
}

// CameraConfig 相机与控制配置
type CameraConfig struct {
	Fov           float64 `yaml:"fov"`
	Near          float64 `yaml:"near"`
	Far           float64 `yaml:"far"`
	RotateSpeed   float64 `yaml:"rotateSpeed"`
	DampingFactor float64 `yaml:"dampingFactor"`
	PanSpeed      float64 `yaml:"panSpeed"` // 自动平移角速度（弧度/秒）
	// Path 场景分组依次移动到的位置
	Path []CameraStop `yaml:"path"`
}

// CameraStop 相机轨道上的一站
type CameraStop struct {
	To     string  `yaml:"to"`
	Delay  float64 `yaml:"delay"`
	Timing float64 `yaml:"timing"`
}

// AudioConfig 位置音效参数
type AudioConfig struct {
	Volume      float64 `yaml:"volume"`
	RefDistance float64 `yaml:"refDistance"` // 0 表示使用 audioEnhancement
	Rolloff     float64 `yaml:"rolloff"`
	SampleRate  int     `yaml:"sampleRate"`
}

// MirrorConfig 地面反射配置
type MirrorConfig struct {
	Enabled bool    `yaml:"enabled"`
	Opacity float64 `yaml:"opacity"`
	Color   string  `yaml:"color"` // golang.org/x/image/colornames 中的名称
}

// AssetsConfig 资源路径模板，%s 为纹理字母或音效名
type AssetsConfig struct {
	Textures string `yaml:"textures"`
	Sounds   string `yaml:"sounds"`
}

// DefaultViewerConfig 返回与原始展览一致的默认配置
func DefaultViewerConfig() *ViewerConfig {
	return &ViewerConfig{
		SceneScale:           0.3,
		Wall:                 WallDims{Height: 2600, Width: 4000, Depth: 35000},
		SceneTiming:          52,
		SceneStartDelay:      2,
		ReflectorTextureSize: 1024,
		AudioEnhancement:     400,
		PanDirection:         PanNone,
		Window:               WindowConfig{Width: 1280, Height: 720, Title: "VOID"},
		Camera: CameraConfig{
			Fov:           75,
			Near:          1,
			Far:           40000,
			RotateSpeed:   0.1,
			DampingFactor: 0.15,
			PanSpeed:      0.05,
			Path: []CameraStop{
				{To: ScenePositionBetween, Delay: 2, Timing: 52},
				{To: ScenePositionEnd, Delay: 0, Timing: 12},
			},
		},
		Audio:  AudioConfig{Volume: 0.1, Rolloff: 1, SampleRate: 44100},
		Mirror: MirrorConfig{Enabled: true, Opacity: 0.35, Color: "dimgray"},
		Assets: AssetsConfig{
			Textures: "assets/images/VOID_material_%s.png",
			Sounds:   "assets/sounds/%s.mp3",
		},
	}
}

// LoadViewerConfig 加载查看器配置
//
// 未出现在文件中的字段保留默认值。
func LoadViewerConfig(path string) (*ViewerConfig, error) {
	data, err := embedded.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read viewer config: %w", err)
	}
	return ParseViewerConfig(data)
}

// ParseViewerConfig 从 YAML 数据解析查看器配置
func ParseViewerConfig(data []byte) (*ViewerConfig, error) {
	config := DefaultViewerConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse viewer config: %w", err)
	}
	config.PanDirection = PanDirection(strings.ToLower(string(config.PanDirection)))

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid viewer config: %w", err)
	}
	return config, nil
}

// Validate 验证配置有效性
func (c *ViewerConfig) Validate() error {
	if c.SceneScale <= 0 {
		return fmt.Errorf("sceneScale must be positive, got %.3f", c.SceneScale)
	}
	if c.Wall.Height <= 0 || c.Wall.Width <= 0 || c.Wall.Depth <= 0 {
		return fmt.Errorf("wall dimensions must be positive, got %+v", c.Wall)
	}
	if !c.PanDirection.Valid() {
		return fmt.Errorf("unknown panDirection %q", c.PanDirection)
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		return fmt.Errorf("camera clip range invalid: near=%.2f far=%.2f", c.Camera.Near, c.Camera.Far)
	}
	for i, stop := range c.Camera.Path {
		if _, ok := c.ScenePosition(stop.To); !ok {
			return fmt.Errorf("camera path[%d]: unknown scene position %q", i, stop.To)
		}
		if stop.Delay < 0 || stop.Timing < 0 {
			return fmt.Errorf("camera path[%d]: delay and timing must be >= 0", i)
		}
	}
	if c.Audio.Volume < 0 || c.Audio.Volume > 1 {
		return fmt.Errorf("audio volume must be within [0, 1], got %.2f", c.Audio.Volume)
	}
	if c.Audio.Rolloff < 0 {
		return fmt.Errorf("audio rolloff must be >= 0, got %.2f", c.Audio.Rolloff)
	}
	if c.Mirror.Opacity < 0 || c.Mirror.Opacity > 1 {
		return fmt.Errorf("mirror opacity must be within [0, 1], got %.2f", c.Mirror.Opacity)
	}
	return nil
}

// WallHeight 缩放后的墙高
func (c *ViewerConfig) WallHeight() float64 { return c.Wall.Height * c.SceneScale }

// WallWidth 缩放后的墙宽
func (c *ViewerConfig) WallWidth() float64 { return c.Wall.Width * c.SceneScale }

// WallDepth 缩放后的走廊深度
func (c *ViewerConfig) WallDepth() float64 { return c.Wall.Depth * c.SceneScale }

// DiagonalWallWidth 斜放墙体的宽度（墙宽 * √2，取整）
func (c *ViewerConfig) DiagonalWallWidth() float64 {
	return math.Round(c.WallWidth() * math.Sqrt2)
}

// RefDistance 音效参考距离
func (c *ViewerConfig) RefDistance() float64 {
	if c.Audio.RefDistance > 0 {
		return c.Audio.RefDistance
	}
	return c.AudioEnhancement
}

// ScenePosition 场景分组在 start / between / end 时的位置
func (c *ViewerConfig) ScenePosition(name string) (mgl64.Vec3, bool) {
	h, w, d, s := c.WallHeight(), c.WallWidth(), c.WallDepth(), c.SceneScale
	switch strings.ToLower(name) {
	case ScenePositionStart:
		return mgl64.Vec3{d/2 - 1000*s, -h / 2, 0}, true
	case ScenePositionBetween:
		return mgl64.Vec3{-d/2 + 13000*s, -h / 2, 0}, true
	case ScenePositionEnd:
		return mgl64.Vec3{-d/2 - w, -h / 2, 0}, true
	}
	return mgl64.Vec3{}, false
}

// Env 编排表达式可见的常量
func (c *ViewerConfig) Env() Env {
	return Env{
		"SCENE_SCALE":         c.SceneScale,
		"WALL_HEIGHT":         c.WallHeight(),
		"WALL_WIDTH":          c.WallWidth(),
		"WALL_DEPTH":          c.WallDepth(),
		"DIAGONAL_WALL_WIDTH": c.DiagonalWallWidth(),
	}
}

// TexturePath 纹理字母对应的文件路径
func (c *ViewerConfig) TexturePath(letter string) string {
	return fmt.Sprintf(c.Assets.Textures, letter)
}

// SoundPath 音效名对应的文件路径
func (c *ViewerConfig) SoundPath(name string) string {
	return fmt.Sprintf(c.Assets.Sounds, name)
}
