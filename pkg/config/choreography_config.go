package config

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/decker502/void/pkg/embedded"
	"github.com/decker502/void/pkg/timeline"
)

// ChoreographyConfig 墙体编排配置
//
// 所有数值字段都是 Expr，可以引用 ViewerConfig.Env() 中的常量。
//
// 配置文件位置: data/choreography.yaml
type ChoreographyConfig struct {
	Walls []WallConfig `yaml:"walls"`
}

// WallConfig 单面墙体
type WallConfig struct {
	Name     string        `yaml:"name"`
	Sound    string        `yaml:"sound"` // 为空时使用 Name
	Size     []Expr        `yaml:"size"`
	Texture  TextureConfig `yaml:"texture"`
	Position []Expr        `yaml:"position"`
	Delay    Expr          `yaml:"delay"`
	Timing   Expr          `yaml:"timing"`

	// SpawnOnStart 默认 true：第一段开始时才进入场景
	SpawnOnStart *bool `yaml:"spawnOnStart"`

	// InitialRotation 初始欧拉角（度）
	InitialRotation []Expr `yaml:"initialRotation"`

	// TargetPosition 主插值的目标位置
	TargetPosition []Expr `yaml:"targetPosition"`

	Steps []StepConfig `yaml:"steps"`

	DestroyOnComplete bool `yaml:"destroyOnComplete"`
	DestroyDelay      Expr `yaml:"destroyDelay"` // 秒
}

// TextureConfig 墙体材质
type TextureConfig struct {
	Letter   string  `yaml:"letter"`
	Opacity  float64 `yaml:"opacity"`
	Rotation float64 `yaml:"rotation"` // 纹理旋转（弧度）
}

// StepConfig 追加的一段变换
//
// rotation 的目标以度为单位；scale 的目标为二维尺寸。
type StepConfig struct {
	Kind   string `yaml:"kind"`
	Target []Expr `yaml:"target"`
	Delay  *Expr  `yaml:"delay"`
	Timing *Expr  `yaml:"timing"`
}

// WallSpec 求值后的墙体参数
type WallSpec struct {
	Name              string
	Sound             string
	Size              mgl64.Vec2
	Texture           TextureConfig
	Position          mgl64.Vec3
	Delay             float64
	Timing            float64
	SpawnOnStart      bool
	InitialRotation   *mgl64.Vec3 // 弧度
	TargetPosition    *mgl64.Vec3
	Steps             []StepSpec
	DestroyOnComplete bool
	DestroyDelay      float64
}

// StepSpec 求值后的段
type StepSpec struct {
	Kind     timeline.Kind
	Target   mgl64.Vec3 // rotation 为弧度；scale 只使用 X、Y
	Override timeline.Override
}

// LoadChoreographyConfig 加载编排配置
func LoadChoreographyConfig(path string) (*ChoreographyConfig, error) {
	data, err := embedded.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read choreography config: %w", err)
	}
	return ParseChoreographyConfig(data)
}

// ParseChoreographyConfig 从 YAML 数据解析编排配置
func ParseChoreographyConfig(data []byte) (*ChoreographyConfig, error) {
	var config ChoreographyConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse choreography config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid choreography config: %w", err)
	}
	return &config, nil
}

// Validate 检查结构有效性（不求值表达式）
//
//   - 名称非空且唯一
//   - 向量维度正确
//   - 段类型已知
//   - 字面量延迟/时长非负
func (c *ChoreographyConfig) Validate() error {
	seen := make(map[string]bool, len(c.Walls))
	for i, w := range c.Walls {
		if w.Name == "" {
			return fmt.Errorf("walls[%d]: name is required", i)
		}
		if seen[w.Name] {
			return fmt.Errorf("walls[%d]: duplicate name %q", i, w.Name)
		}
		seen[w.Name] = true

		if len(w.Size) != 2 {
			return fmt.Errorf("wall %q: size needs 2 components, got %d", w.Name, len(w.Size))
		}
		if len(w.Position) != 3 {
			return fmt.Errorf("wall %q: position needs 3 components, got %d", w.Name, len(w.Position))
		}
		if n := len(w.InitialRotation); n != 0 && n != 3 {
			return fmt.Errorf("wall %q: initialRotation needs 3 components, got %d", w.Name, n)
		}
		if n := len(w.TargetPosition); n != 0 && n != 3 {
			return fmt.Errorf("wall %q: targetPosition needs 3 components, got %d", w.Name, n)
		}
		if w.Texture.Opacity < 0 || w.Texture.Opacity > 1 {
			return fmt.Errorf("wall %q: opacity must be within [0, 1]", w.Name)
		}
		if err := checkNonNegative(w.Delay, w.Timing, w.DestroyDelay); err != nil {
			return fmt.Errorf("wall %q: %w", w.Name, err)
		}

		for j, step := range w.Steps {
			kind, ok := timeline.ParseKind(step.Kind)
			if !ok {
				return fmt.Errorf("wall %q step %d: unknown kind %q", w.Name, j, step.Kind)
			}
			want := 3
			if kind == timeline.KindScale {
				want = 2
			}
			if len(step.Target) != want {
				return fmt.Errorf("wall %q step %d: %s target needs %d components, got %d",
					w.Name, j, kind, want, len(step.Target))
			}
			for _, e := range []*Expr{step.Delay, step.Timing} {
				if e == nil {
					continue
				}
				if err := checkNonNegative(*e); err != nil {
					return fmt.Errorf("wall %q step %d: %w", w.Name, j, err)
				}
			}
		}
	}
	return nil
}

func checkNonNegative(exprs ...Expr) error {
	for _, e := range exprs {
		if e.literal && e.value < 0 {
			return fmt.Errorf("delay/timing must be >= 0, got %s", e.src)
		}
	}
	return nil
}

// Resolve 在 env 中求值所有墙体
func (c *ChoreographyConfig) Resolve(env Env) ([]WallSpec, error) {
	specs := make([]WallSpec, 0, len(c.Walls))
	for _, w := range c.Walls {
		spec, err := w.Resolve(env)
		if err != nil {
			return nil, fmt.Errorf("wall %q: %w", w.Name, err)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// Resolve 求值单面墙体
func (w *WallConfig) Resolve(env Env) (WallSpec, error) {
	spec := WallSpec{
		Name:              w.Name,
		Sound:             w.Sound,
		Texture:           w.Texture,
		SpawnOnStart:      true,
		DestroyOnComplete: w.DestroyOnComplete,
	}
	if spec.Sound == "" {
		spec.Sound = w.Name
	}
	if w.SpawnOnStart != nil {
		spec.SpawnOnStart = *w.SpawnOnStart
	}

	var err error
	if spec.Size, err = evalVec2(w.Size, env); err != nil {
		return spec, fmt.Errorf("size: %w", err)
	}
	if spec.Position, err = evalVec3(w.Position, env); err != nil {
		return spec, fmt.Errorf("position: %w", err)
	}
	if spec.Delay, err = w.Delay.Eval(env); err != nil {
		return spec, fmt.Errorf("delay: %w", err)
	}
	if spec.Timing, err = w.Timing.Eval(env); err != nil {
		return spec, fmt.Errorf("timing: %w", err)
	}
	if spec.DestroyDelay, err = w.DestroyDelay.Eval(env); err != nil {
		return spec, fmt.Errorf("destroyDelay: %w", err)
	}
	if spec.Delay < 0 || spec.Timing < 0 || spec.DestroyDelay < 0 {
		return spec, fmt.Errorf("delay, timing and destroyDelay must be >= 0")
	}

	if len(w.InitialRotation) > 0 {
		deg, err := evalVec3(w.InitialRotation, env)
		if err != nil {
			return spec, fmt.Errorf("initialRotation: %w", err)
		}
		rad := degreesToRadians(deg)
		spec.InitialRotation = &rad
	}
	if len(w.TargetPosition) > 0 {
		target, err := evalVec3(w.TargetPosition, env)
		if err != nil {
			return spec, fmt.Errorf("targetPosition: %w", err)
		}
		spec.TargetPosition = &target
	}

	for j, step := range w.Steps {
		s, err := step.resolve(env)
		if err != nil {
			return spec, fmt.Errorf("step %d: %w", j, err)
		}
		spec.Steps = append(spec.Steps, s)
	}
	return spec, nil
}

func (s *StepConfig) resolve(env Env) (StepSpec, error) {
	kind, ok := timeline.ParseKind(s.Kind)
	if !ok {
		return StepSpec{}, fmt.Errorf("unknown kind %q", s.Kind)
	}
	out := StepSpec{Kind: kind}

	switch kind {
	case timeline.KindScale:
		size, err := evalVec2(s.Target, env)
		if err != nil {
			return out, fmt.Errorf("target: %w", err)
		}
		out.Target = mgl64.Vec3{size.X(), size.Y(), 1}
	case timeline.KindRotation:
		deg, err := evalVec3(s.Target, env)
		if err != nil {
			return out, fmt.Errorf("target: %w", err)
		}
		out.Target = degreesToRadians(deg)
	default:
		target, err := evalVec3(s.Target, env)
		if err != nil {
			return out, fmt.Errorf("target: %w", err)
		}
		out.Target = target
	}

	if s.Delay != nil {
		v, err := s.Delay.Eval(env)
		if err != nil {
			return out, fmt.Errorf("delay: %w", err)
		}
		out.Override.Delay = timeline.Seconds(v)
	}
	if s.Timing != nil {
		v, err := s.Timing.Eval(env)
		if err != nil {
			return out, fmt.Errorf("timing: %w", err)
		}
		out.Override.Timing = timeline.Seconds(v)
	}
	return out, nil
}

func degreesToRadians(deg mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{
		mgl64.DegToRad(deg.X()),
		mgl64.DegToRad(deg.Y()),
		mgl64.DegToRad(deg.Z()),
	}
}
