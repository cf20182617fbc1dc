package systems

import (
	"math"

	"github.com/decker502/void/pkg/config"
	"github.com/decker502/void/pkg/scene"
	"github.com/decker502/void/pkg/utils"
)

// PointerInput 拖拽输入来源
type PointerInput interface {
	CursorPosition() (x, y int)
	Dragging() bool
}

// EbitenPointer 以鼠标左键或第一个触摸点作为拖拽输入
type EbitenPointer struct{}

func (EbitenPointer) CursorPosition() (int, int) {
	p := utils.GetPointerState()
	return p.X, p.Y
}

func (EbitenPointer) Dragging() bool { return utils.GetPointerState().Pressed }

// ControlsSystem 轨道式视角控制（带阻尼）
//
// 相机位置不变，只改变朝向：
//   - 拖拽：按 rotateSpeed 累积偏航/俯仰增量
//   - 每帧应用增量的 dampingFactor 部分，剩余部分衰减
//   - 未拖拽且 panDirection 不为 none 时，按 panSpeed 自动平移视角
//
// 键盘控制关闭。
type ControlsSystem struct {
	camera  *scene.Camera
	input   PointerInput
	viewer  *config.ViewerConfig
	enabled bool

	dragging   bool
	lastX      int
	lastY      int
	deltaYaw   float64
	deltaPitch float64
}

// NewControlsSystem 创建视角控制系统
// input 为 nil 时使用 EbitenPointer
func NewControlsSystem(camera *scene.Camera, input PointerInput, viewer *config.ViewerConfig) *ControlsSystem {
	if input == nil {
		input = EbitenPointer{}
	}
	return &ControlsSystem{
		camera:  camera,
		input:   input,
		viewer:  viewer,
		enabled: true,
	}
}

// SetEnabled 启用或禁用拖拽（自动平移不受影响）
func (cs *ControlsSystem) SetEnabled(enabled bool) {
	cs.enabled = enabled
	if !enabled {
		cs.dragging = false
	}
}

// Update 处理输入并应用阻尼
//
// screenHeight 用于把拖拽像素换算为角度（整屏高度对应一整圈）。
func (cs *ControlsSystem) Update(deltaTime float64, screenHeight int) {
	cs.handleDrag(screenHeight)

	if !cs.dragging {
		cs.autoPan(deltaTime)
	}

	damping := cs.viewer.Camera.DampingFactor
	if damping <= 0 || damping > 1 {
		damping = 1
	}
	cs.camera.Yaw += cs.deltaYaw * damping
	cs.camera.Pitch += cs.deltaPitch * damping
	cs.camera.ClampPitch()

	cs.deltaYaw *= 1 - damping
	cs.deltaPitch *= 1 - damping
}

func (cs *ControlsSystem) handleDrag(screenHeight int) {
	if !cs.enabled || !cs.input.Dragging() {
		cs.dragging = false
		return
	}

	x, y := cs.input.CursorPosition()
	if !cs.dragging {
		cs.dragging = true
		cs.lastX, cs.lastY = x, y
		return
	}

	if screenHeight <= 0 {
		screenHeight = 1
	}
	scale := 2 * math.Pi / float64(screenHeight) * cs.viewer.Camera.RotateSpeed
	cs.deltaYaw += float64(x-cs.lastX) * scale
	cs.deltaPitch -= float64(y-cs.lastY) * scale
	cs.lastX, cs.lastY = x, y
}

func (cs *ControlsSystem) autoPan(deltaTime float64) {
	step := cs.viewer.Camera.PanSpeed * deltaTime
	switch cs.viewer.PanDirection {
	case config.PanLeft:
		cs.deltaYaw += step
	case config.PanRight:
		cs.deltaYaw -= step
	case config.PanUp:
		cs.deltaPitch += step
	case config.PanDown:
		cs.deltaPitch -= step
	}
}
