package components

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
)

// PlaneVertex 平面几何的一个顶点
type PlaneVertex struct {
	Local mgl64.Vec3 // 局部坐标
	U, V  float64    // 纹理坐标 [0, 1]
}

// Material 墙面材质
//
// 每面墙各自持有一份纹理图像，释放时互不影响。
type Material struct {
	Texture    *ebiten.Image
	Opacity    float64 // 0.0 ~ 1.0
	Rotation   float64 // 纹理旋转（弧度）
	DoubleSide bool
	released   bool
}

// Release 释放纹理，重复调用无副作用
func (m *Material) Release() {
	if m == nil || m.released {
		return
	}
	m.released = true
	if m.Texture != nil {
		m.Texture.Deallocate()
		m.Texture = nil
	}
}

// Released 材质是否已释放
func (m *Material) Released() bool {
	return m != nil && m.released
}

// MeshComponent 可渲染的平面网格
type MeshComponent struct {
	Vertices []PlaneVertex
	Indices  []uint16
	Material *Material
}

// NewPlaneMesh 创建 1x1、以原点为中心的平面（同 PlaneBufferGeometry(1, 1)）
// 实际尺寸由 TransformComponent.Scale 决定
func NewPlaneMesh(material *Material) *MeshComponent {
	return &MeshComponent{
		Vertices: []PlaneVertex{
			{Local: mgl64.Vec3{-0.5, 0.5, 0}, U: 0, V: 0},
			{Local: mgl64.Vec3{0.5, 0.5, 0}, U: 1, V: 0},
			{Local: mgl64.Vec3{-0.5, -0.5, 0}, U: 0, V: 1},
			{Local: mgl64.Vec3{0.5, -0.5, 0}, U: 1, V: 1},
		},
		Indices:  []uint16{0, 2, 1, 2, 3, 1},
		Material: material,
	}
}

// ReleaseGeometry 释放几何数据
func (m *MeshComponent) ReleaseGeometry() {
	m.Vertices = nil
	m.Indices = nil
}

// ReleaseMaterial 释放材质
func (m *MeshComponent) ReleaseMaterial() {
	m.Material.Release()
}

// Renderable 几何与材质都可用
func (m *MeshComponent) Renderable() bool {
	return len(m.Vertices) > 0 && m.Material != nil && !m.Material.Released()
}
