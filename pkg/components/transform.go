package components

import (
	"github.com/go-gl/mathgl/mgl64"
)

// TransformComponent 三维变换
//
// Rotation 以欧拉角（XYZ 顺序，弧度）保存，四元数与矩阵按需推导。
// 插值只理解扁平向量，因此旋转段写入的是欧拉角，渲染时再计算完整旋转。
type TransformComponent struct {
	Position mgl64.Vec3
	Rotation mgl64.Vec3
	Scale    mgl64.Vec3
}

// NewTransform 创建位于 position、缩放为 (w, h, 1) 的变换
func NewTransform(position mgl64.Vec3, size mgl64.Vec2) *TransformComponent {
	return &TransformComponent{
		Position: position,
		Scale:    mgl64.Vec3{size.X(), size.Y(), 1},
	}
}

// SetRotationFromEuler 以欧拉角设置旋转
func (t *TransformComponent) SetRotationFromEuler(euler mgl64.Vec3) {
	t.Rotation = euler
}

// SetScale2D 由二维尺寸设置缩放，Z 固定为 1
func (t *TransformComponent) SetScale2D(w, h float64) {
	t.Scale = mgl64.Vec3{w, h, 1}
}

// Quat 由欧拉角计算旋转四元数
func (t *TransformComponent) Quat() mgl64.Quat {
	return mgl64.AnglesToQuat(t.Rotation.X(), t.Rotation.Y(), t.Rotation.Z(), mgl64.XYZ)
}

// Matrix 返回 T * R * S 模型矩阵
func (t *TransformComponent) Matrix() mgl64.Mat4 {
	translate := mgl64.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z())
	rotate := t.Quat().Mat4()
	scale := mgl64.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z())
	return translate.Mul4(rotate).Mul4(scale)
}

// Normal 返回平面（局部 +Z 朝向）在世界中的法线
func (t *TransformComponent) Normal() mgl64.Vec3 {
	return t.Quat().Rotate(mgl64.Vec3{0, 0, 1})
}
