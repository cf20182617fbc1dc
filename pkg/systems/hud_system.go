package systems

import (
	"fmt"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/basicfont"
)

// HUDInfo 调试信息
type HUDInfo struct {
	Elapsed      time.Duration
	Started      bool
	LiveWalls    int
	TotalWalls   int
	Pending      int // 所有墙体未完成段数之和
	RigRemaining int
	SoundEnabled bool
	Volume       float64
}

// HUDSystem 左上角的调试文字
type HUDSystem struct {
	face    *text.GoXFace
	visible bool
}

// NewHUDSystem 创建 HUD 系统
func NewHUDSystem(visible bool) *HUDSystem {
	return &HUDSystem{
		face:    text.NewGoXFace(basicfont.Face7x13),
		visible: visible,
	}
}

// SetVisible 设置是否显示
func (hs *HUDSystem) SetVisible(visible bool) { hs.visible = visible }

// Visible 是否显示
func (hs *HUDSystem) Visible() bool { return hs.visible }

// Lines 生成要显示的文字行
func (hs *HUDSystem) Lines(info HUDInfo) []string {
	state := "waiting (Space to start)"
	if info.Started {
		state = fmt.Sprintf("t=%.1fs", info.Elapsed.Seconds())
	}
	sound := "off"
	if info.SoundEnabled {
		sound = fmt.Sprintf("%.0f%%", info.Volume*100)
	}
	return []string{
		state,
		fmt.Sprintf("walls: %d/%d  pending: %d  rig: %d", info.LiveWalls, info.TotalWalls, info.Pending, info.RigRemaining),
		fmt.Sprintf("sound: %s  fps: %.0f", sound, ebiten.ActualFPS()),
	}
}

// Draw 绘制 HUD
func (hs *HUDSystem) Draw(screen *ebiten.Image, info HUDInfo) {
	if !hs.visible {
		return
	}
	for i, line := range hs.Lines(info) {
		op := &text.DrawOptions{}
		op.GeoM.Translate(8, float64(8+i*16))
		text.Draw(screen, line, hs.face, op)
	}
}
