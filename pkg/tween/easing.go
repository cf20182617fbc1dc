package tween

import "math"

// Easing 缓动函数
//
// 接受进度 t ∈ [0, 1]，返回缓动后的进度。
// 墙体编排只使用 Linear（匀速），其余曲线供相机路径等配置选用。
//
// 参考：https://easings.net/
type Easing func(t float64) float64

// Linear 线性缓动（无加速曲线）
func Linear(t float64) float64 {
	return t
}

// InQuad 二次方缓入
func InQuad(t float64) float64 {
	return t * t
}

// OutQuad 二次方缓出
func OutQuad(t float64) float64 {
	return 1 - (1-t)*(1-t)
}

// OutCubic 三次方缓出
func OutCubic(t float64) float64 {
	return 1 - math.Pow(1-t, 3)
}

// InOutCubic 三次方缓入缓出
//
//	t < 0.5: f(t) = 4t³
//	t >= 0.5: f(t) = 1 - (-2t + 2)³ / 2
func InOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}

var easingsByName = map[string]Easing{
	"":           Linear,
	"linear":     Linear,
	"inQuad":     InQuad,
	"outQuad":    OutQuad,
	"outCubic":   OutCubic,
	"inOutCubic": InOutCubic,
}

// EasingByName 按配置中的名称查找缓动函数
// 空字符串视为 linear
func EasingByName(name string) (Easing, bool) {
	e, ok := easingsByName[name]
	return e, ok
}
