package components

// SceneNodeComponent 标记组件：实体当前在场景中（可见、参与渲染）
// 插入场景即添加此组件，移出场景即移除
type SceneNodeComponent struct {
	Parent string // 所属分组名称，墙体统一挂在 "walls" 下
}

// WallComponent 墙体身份信息
type WallComponent struct {
	Name string // 编排中的名称，同时决定默认音效文件名
}

// SpatialSource 随听者距离衰减的声源
type SpatialSource interface {
	SetListenerDistance(d float64)
}

// SoundComponent 挂在墙体上的位置音效
type SoundComponent struct {
	Source SpatialSource
}
