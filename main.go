package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/decker502/void/pkg/app"
	"github.com/decker502/void/pkg/embedded"
)

var (
	verbose          = flag.Bool("verbose", false, "详细日志")
	viewerPath       = flag.String("viewer", app.DefaultViewerPath, "查看器配置文件路径")
	choreographyPath = flag.String("choreography", app.DefaultChoreographyPath, "编排配置文件路径")
	watch            = flag.Bool("watch", false, "监视编排文件，修改后重新构建")
	autoStart        = flag.Bool("autostart", false, "启动后立即开始，不等待空格键")
	debug            = flag.Bool("debug", false, "墙体调试日志与 HUD")
)

func main() {
	flag.Parse()

	// 初始化嵌入配置（dataFS 在 embed.go 中声明）
	embedded.Init(dataFS)

	a, err := app.NewApp(app.Config{
		Verbose:          *verbose,
		ViewerPath:       *viewerPath,
		ChoreographyPath: *choreographyPath,
		Watch:            *watch,
		AutoStart:        *autoStart,
		Debug:            *debug,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "启动失败: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	viewer := a.Viewer()
	ebiten.SetWindowSize(viewer.Window.Width, viewer.Window.Height)
	ebiten.SetWindowTitle(viewer.Window.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(a); err != nil {
		fmt.Fprintf(os.Stderr, "运行失败: %v\n", err)
		os.Exit(1)
	}
}
