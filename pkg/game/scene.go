package game

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// Scene represents a viewer scene (the wall installation).
// Each scene has its own update and rendering logic.
type Scene interface {
	// Update updates the scene logic based on the elapsed time.
	// deltaTime is the time elapsed since the last update in seconds.
	Update(deltaTime float64)

	// Draw renders the scene to the provided screen.
	Draw(screen *ebiten.Image)
}

// Closer 是一个可选接口，场景被替换或程序退出时释放资源
//
// 实现此接口的场景会在以下时机被调用 Close()：
//   - 重新开始编排（Space）
//   - 配置文件热重载
//   - 程序退出
type Closer interface {
	Close()
}
