package scenes

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/decker502/void/pkg/config"
	"github.com/decker502/void/pkg/game"
)

func testWalls() []config.WallSpec {
	target := mgl64.Vec3{500, 0, 0}
	rot := mgl64.Vec3{0, mgl64.DegToRad(90), 0}
	return []config.WallSpec{
		{
			Name:            "stay",
			Sound:           "stay",
			Size:            mgl64.Vec2{100, 50},
			Texture:         config.TextureConfig{Letter: "M", Opacity: 1},
			Position:        mgl64.Vec3{300, 0, 0},
			Timing:          1,
			InitialRotation: &rot,
		},
		{
			Name:              "slide",
			Sound:             "slide",
			Size:              mgl64.Vec2{100, 50},
			Texture:           config.TextureConfig{Letter: "J", Opacity: 0.9},
			Position:          mgl64.Vec3{200, 0, 0},
			Delay:             0.5,
			Timing:            1,
			SpawnOnStart:      true,
			InitialRotation:   &rot,
			TargetPosition:    &target,
			DestroyOnComplete: true,
		},
	}
}

func newTestScene(t *testing.T) *InstallationScene {
	t.Helper()
	viewer := config.DefaultViewerConfig()
	viewer.Camera.Path = []config.CameraStop{{To: config.ScenePositionBetween, Timing: 1}}

	s, err := NewInstallationScene(InstallationOptions{
		Viewer:    viewer,
		Walls:     testWalls(),
		Resources: game.NewResourceManager(nil, viewer),
		Settings:  game.NewSettingsManager(nil),
	})
	if err != nil {
		t.Fatalf("NewInstallationScene failed: %v", err)
	}
	return s
}

func TestInstallationSceneWaitsForStart(t *testing.T) {
	s := newTestScene(t)

	for i := 0; i < 120; i++ {
		s.Update(1.0 / 60)
	}
	if s.Started() || s.Choreograph().Len() != 2 {
		t.Fatal("Nothing should happen before Start")
	}
	if len(s.Graph().Nodes()) != 1 {
		t.Errorf("Only the spawnOnStart=false wall should be visible, got %d", len(s.Graph().Nodes()))
	}
}

func TestInstallationSceneRunsToCompletion(t *testing.T) {
	s := newTestScene(t)
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Errorf("Second Start should be a no-op, got %v", err)
	}

	for i := 0; i < 60; i++ {
		s.Update(1.0 / 60)
	}
	if len(s.Graph().Nodes()) != 2 {
		t.Errorf("Sliding wall should be visible after its delay, got %d nodes", len(s.Graph().Nodes()))
	}

	for i := 0; i < 120 && !s.Finished(); i++ {
		s.Update(1.0 / 60)
	}
	if !s.Finished() {
		t.Fatal("Scene should finish once the sliding wall is destroyed")
	}
	if s.Choreograph().Len() != 1 || len(s.Graph().Nodes()) != 1 {
		t.Errorf("Only the static wall should remain, got %d walls", s.Choreograph().Len())
	}

	info := s.hudInfo()
	if info.LiveWalls != 1 || info.TotalWalls != 2 || info.RigRemaining != 0 {
		t.Errorf("Unexpected HUD info: %+v", info)
	}

	s.Close()
	if len(s.Graph().Nodes()) != 0 {
		t.Error("Close should release every wall")
	}
}
