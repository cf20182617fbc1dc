// check_config 校验查看器与编排配置，并打印求值后的墙体参数
//
// 用法：
//
//	go run ./cmd/check_config --choreography data/choreography.yaml
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/decker502/void/pkg/config"
)

var (
	viewerPath       = flag.String("viewer", "data/viewer.yaml", "查看器配置文件路径")
	choreographyPath = flag.String("choreography", "data/choreography.yaml", "编排配置文件路径")
)

func main() {
	flag.Parse()

	viewer, err := config.LoadViewerConfig(*viewerPath)
	if err != nil {
		fmt.Printf("FAIL: %s - %v\n", *viewerPath, err)
		os.Exit(1)
	}
	fmt.Printf("OK: %s\n", *viewerPath)
	for name, v := range viewer.Env() {
		fmt.Printf("  %-20s %.2f\n", name, v)
	}

	choreography, err := config.LoadChoreographyConfig(*choreographyPath)
	if err != nil {
		fmt.Printf("FAIL: %s - %v\n", *choreographyPath, err)
		os.Exit(1)
	}
	specs, err := choreography.Resolve(viewer.Env())
	if err != nil {
		fmt.Printf("FAIL: %s - %v\n", *choreographyPath, err)
		os.Exit(1)
	}
	fmt.Printf("OK: %s (%d walls)\n", *choreographyPath, len(specs))

	for _, s := range specs {
		fmt.Printf("  %-8s size=%s pos=%s delay=%.1f timing=%.1f steps=%d destroy=%v",
			s.Name, vec2(s.Size), vec3(s.Position), s.Delay, s.Timing, len(s.Steps), s.DestroyOnComplete)
		if s.TargetPosition != nil {
			fmt.Printf(" target=%s", vec3(*s.TargetPosition))
		}
		fmt.Println()
		if !assetExists(viewer.TexturePath(s.Texture.Letter)) {
			fmt.Printf("    (texture %s missing, placeholder will be used)\n", viewer.TexturePath(s.Texture.Letter))
		}
	}
}

func assetExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func vec2(v mgl64.Vec2) string { return fmt.Sprintf("(%.0f, %.0f)", v.X(), v.Y()) }
func vec3(v mgl64.Vec3) string { return fmt.Sprintf("(%.0f, %.0f, %.0f)", v.X(), v.Y(), v.Z()) }
