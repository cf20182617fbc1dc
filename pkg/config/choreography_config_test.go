package config

import (
	"math"
	"os"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/decker502/void/pkg/timeline"
)

func defaultEnv() Env {
	return DefaultViewerConfig().Env()
}

func TestExprEval(t *testing.T) {
	env := Env{"WALL_WIDTH": 1200, "WALL_HEIGHT": 780}

	tests := []struct {
		src  string
		want float64
	}{
		{"42", 42},
		{"-1.5", -1.5},
		{"WALL_WIDTH*2", 2400},
		{"-1000 + WALL_WIDTH/4", -700},
		{"WALL_HEIGHT/2", 390},
		{"3/2", 1}, // 整数除法
	}
	for _, tt := range tests {
		got, err := Formula(tt.src).Eval(env)
		if err != nil {
			t.Errorf("Eval(%q) failed: %v", tt.src, err)
			continue
		}
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Eval(%q) = %f, want %f", tt.src, got, tt.want)
		}
	}
}

func TestExprEvalErrors(t *testing.T) {
	if _, err := Formula("UNKNOWN_CONSTANT * 2").Eval(Env{}); err == nil {
		t.Error("Expected error for unresolved identifier")
	}
	if _, err := Formula(`"text"`).Eval(Env{}); err == nil {
		t.Error("Expected error for non-numeric result")
	}
	if v, err := (Expr{}).Eval(Env{}); err != nil || v != 0 {
		t.Errorf("Empty expression should evaluate to 0, got %f, %v", v, err)
	}
}

func TestParseChoreographyConfig(t *testing.T) {
	data := []byte(`
walls:
  - name: a
    size: [WALL_WIDTH, WALL_HEIGHT]
    texture: {letter: M, opacity: 1}
    position: [-WALL_DEPTH/2, WALL_HEIGHT/2, 0]
    delay: 2
    timing: 10
    initialRotation: [0, 90, 0]
    steps:
      - kind: rotation
        target: [0, -135, 0]
        delay: 0
        timing: 4
      - kind: scale
        target: [WALL_WIDTH/2, WALL_HEIGHT]
    destroyOnComplete: true
    destroyDelay: 20
`)
	cfg, err := ParseChoreographyConfig(data)
	if err != nil {
		t.Fatalf("ParseChoreographyConfig failed: %v", err)
	}
	specs, err := cfg.Resolve(defaultEnv())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(specs) != 1 {
		t.Fatalf("Expected 1 wall, got %d", len(specs))
	}

	w := specs[0]
	if !w.SpawnOnStart {
		t.Error("spawnOnStart should default to true")
	}
	if w.Sound != "a" {
		t.Errorf("Sound should default to name, got %q", w.Sound)
	}
	if !w.Size.ApproxEqual(mgl64.Vec2{1200, 780}) {
		t.Errorf("Unexpected size %v", w.Size)
	}
	if !w.Position.ApproxEqual(mgl64.Vec3{-5250, 390, 0}) {
		t.Errorf("Unexpected position %v", w.Position)
	}
	if w.InitialRotation == nil || math.Abs(w.InitialRotation.Y()-math.Pi/2) > 1e-9 {
		t.Errorf("Initial rotation should be converted to radians, got %v", w.InitialRotation)
	}
	if w.TargetPosition != nil {
		t.Error("Target position should be unset")
	}
	if !w.DestroyOnComplete || w.DestroyDelay != 20 {
		t.Errorf("Unexpected destroy settings %v/%f", w.DestroyOnComplete, w.DestroyDelay)
	}

	if len(w.Steps) != 2 {
		t.Fatalf("Expected 2 steps, got %d", len(w.Steps))
	}
	rot := w.Steps[0]
	if rot.Kind != timeline.KindRotation {
		t.Errorf("Expected rotation step, got %s", rot.Kind)
	}
	if math.Abs(rot.Target.Y()-mgl64.DegToRad(-135)) > 1e-9 {
		t.Errorf("Rotation target should be in radians, got %v", rot.Target)
	}
	if rot.Override.Delay == nil || *rot.Override.Delay != 0 || rot.Override.Timing == nil || *rot.Override.Timing != 4 {
		t.Errorf("Unexpected rotation override %+v", rot.Override)
	}

	scale := w.Steps[1]
	if !scale.Target.ApproxEqual(mgl64.Vec3{600, 780, 1}) {
		t.Errorf("Scale target should be (w, h, 1), got %v", scale.Target)
	}
	if scale.Override.Delay != nil || scale.Override.Timing != nil {
		t.Error("Scale step without overrides should use base timing")
	}
}

func TestChoreographyValidate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing name",
			yaml: "walls:\n  - size: [1, 1]\n    position: [0, 0, 0]\n",
			want: "name is required",
		},
		{
			name: "duplicate name",
			yaml: "walls:\n  - {name: a, size: [1, 1], position: [0, 0, 0]}\n  - {name: a, size: [1, 1], position: [0, 0, 0]}\n",
			want: "duplicate name",
		},
		{
			name: "bad position arity",
			yaml: "walls:\n  - {name: a, size: [1, 1], position: [0, 0]}\n",
			want: "position needs 3",
		},
		{
			name: "unknown kind",
			yaml: "walls:\n  - name: a\n    size: [1, 1]\n    position: [0, 0, 0]\n    steps:\n      - {kind: skew, target: [1, 1, 1]}\n",
			want: "unknown kind",
		},
		{
			name: "scale arity",
			yaml: "walls:\n  - name: a\n    size: [1, 1]\n    position: [0, 0, 0]\n    steps:\n      - {kind: scale, target: [1, 1, 1]}\n",
			want: "needs 2 components",
		},
		{
			name: "negative timing",
			yaml: "walls:\n  - {name: a, size: [1, 1], position: [0, 0, 0], timing: -1}\n",
			want: "must be >= 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseChoreographyConfig([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

// TestShippedChoreography 校验随程序发布的编排
func TestShippedChoreography(t *testing.T) {
	data, err := os.ReadFile("../../data/choreography.yaml")
	if err != nil {
		t.Skipf("choreography data not available: %v", err)
	}
	cfg, err := ParseChoreographyConfig(data)
	if err != nil {
		t.Fatalf("shipped choreography invalid: %v", err)
	}
	specs, err := cfg.Resolve(defaultEnv())
	if err != nil {
		t.Fatalf("shipped choreography does not resolve: %v", err)
	}
	if len(specs) != 9 {
		t.Fatalf("Expected 9 walls, got %d", len(specs))
	}

	byName := make(map[string]WallSpec)
	for _, s := range specs {
		byName[s.Name] = s
	}

	one := byName["1"]
	if one.SpawnOnStart || one.DestroyOnComplete {
		t.Error("Wall one is present from the start and never destroyed")
	}
	if one.TargetPosition == nil || !one.TargetPosition.ApproxEqual(mgl64.Vec3{-4750, 390, 0}) {
		t.Errorf("Unexpected target for wall one: %v", one.TargetPosition)
	}
	for name, spec := range byName {
		if spec.Sound != name {
			t.Errorf("Wall %s should play sound %q, got %q", name, name, spec.Sound)
		}
	}
	if path := DefaultViewerConfig().SoundPath(one.Sound); path != "assets/sounds/1.mp3" {
		t.Errorf("Unexpected sound path %s", path)
	}

	four := byName["4"]
	if len(four.Steps) != 3 || four.Steps[0].Kind != timeline.KindScale {
		t.Fatalf("Wall four should start with a scale step, got %+v", four.Steps)
	}
	if !four.Steps[0].Target.ApproxEqual(mgl64.Vec3{848.5, 780, 1}) {
		t.Errorf("Unexpected scale target %v", four.Steps[0].Target)
	}

	five := byName["5"]
	if !five.SpawnOnStart || five.TargetPosition != nil || five.Timing != 0 {
		t.Error("Wall five spawns on start and has an untargeted zero-length root")
	}
	if !five.Position.ApproxEqual(*four.TargetPosition) {
		t.Errorf("Wall five should appear where wall four is heading: %v vs %v", five.Position, *four.TargetPosition)
	}

	three := byName["3"]
	if three.DestroyDelay != 20 {
		t.Errorf("Wall three lingers for 20s, got %f", three.DestroyDelay)
	}
}
