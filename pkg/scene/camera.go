package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Camera 透视相机
//
// Yaw 为 0 时朝向 +X（墙体走廊的方向），Pitch 为正时抬头。
type Camera struct {
	Position mgl64.Vec3
	Yaw      float64 // 弧度
	Pitch    float64 // 弧度，限制在 ±MaxPitch
	FovY     float64 // 垂直视角（度）
	Near     float64
	Far      float64
}

// MaxPitch 俯仰角上限，避免与 up 向量重合
const MaxPitch = math.Pi/2 - 0.01

// NewCamera 创建位于原点、朝向 +X 的相机
func NewCamera(fovY, near, far float64) *Camera {
	return &Camera{
		FovY: fovY,
		Near: near,
		Far:  far,
	}
}

// Forward 返回视线方向（单位向量）
func (c *Camera) Forward() mgl64.Vec3 {
	cp := math.Cos(c.Pitch)
	return mgl64.Vec3{
		cp * math.Cos(c.Yaw),
		math.Sin(c.Pitch),
		-cp * math.Sin(c.Yaw),
	}
}

// View 返回视图矩阵
func (c *Camera) View() mgl64.Mat4 {
	center := c.Position.Add(c.Forward())
	return mgl64.LookAtV(c.Position, center, mgl64.Vec3{0, 1, 0})
}

// Projection 返回透视投影矩阵
func (c *Camera) Projection(aspect float64) mgl64.Mat4 {
	return mgl64.Perspective(mgl64.DegToRad(c.FovY), aspect, c.Near, c.Far)
}

// ViewProjection 返回 P * V
func (c *Camera) ViewProjection(width, height int) mgl64.Mat4 {
	aspect := 1.0
	if height > 0 {
		aspect = float64(width) / float64(height)
	}
	return c.Projection(aspect).Mul4(c.View())
}

// Project 把世界坐标投影到屏幕坐标
//
// 返回屏幕坐标、视空间深度（越大越远）以及点是否在近平面之前
func Project(viewProj mgl64.Mat4, world mgl64.Vec3, width, height int) (x, y, depth float64, ok bool) {
	clip := viewProj.Mul4x1(world.Vec4(1))
	w := clip.W()
	if w <= 0 {
		return 0, 0, 0, false
	}
	x, y = ClipToScreen(clip, width, height)
	return x, y, w, true
}

// ClipToScreen 透视除法后映射到屏幕坐标，要求 clip.W() > 0
func ClipToScreen(clip mgl64.Vec4, width, height int) (x, y float64) {
	ndcX := clip.X() / clip.W()
	ndcY := clip.Y() / clip.W()
	x = (ndcX + 1) / 2 * float64(width)
	y = (1 - ndcY) / 2 * float64(height)
	return x, y
}

// ClampPitch 把俯仰角限制在 ±MaxPitch
func (c *Camera) ClampPitch() {
	c.Pitch = mgl64.Clamp(c.Pitch, -MaxPitch, MaxPitch)
}
