// Package utils 提供平台相关的输入与存储工具
package utils

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// PointerState 当前帧的指针状态
// 统一处理鼠标和触摸输入
type PointerState struct {
	Pressed bool
	X, Y    int
	Touch   bool // 来自触摸
}

// GetPointerState 获取指针状态，优先使用第一个触摸点
func GetPointerState() PointerState {
	touchIDs := ebiten.AppendTouchIDs(nil)
	if len(touchIDs) > 0 {
		x, y := ebiten.TouchPosition(touchIDs[0])
		return PointerState{Pressed: true, X: x, Y: y, Touch: true}
	}

	x, y := ebiten.CursorPosition()
	return PointerState{
		Pressed: ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft),
		X:       x,
		Y:       y,
	}
}
