package systems

import (
	"github.com/decker502/void/pkg/components"
	"github.com/decker502/void/pkg/ecs"
	"github.com/decker502/void/pkg/scene"
)

// AudioSystem 按相机距离更新位置音效的衰减
type AudioSystem struct {
	graph  *scene.Graph
	camera *scene.Camera
}

// NewAudioSystem 创建音效系统
func NewAudioSystem(graph *scene.Graph, camera *scene.Camera) *AudioSystem {
	return &AudioSystem{graph: graph, camera: camera}
}

// Update 为每个带 SoundComponent 的墙体计算与相机的距离
func (as *AudioSystem) Update(deltaTime float64) {
	em := as.graph.EntityManager()
	for _, id := range ecs.GetEntitiesWith1[*components.SoundComponent](em) {
		sound, ok := ecs.GetComponent[*components.SoundComponent](em, id)
		if !ok || sound.Source == nil {
			continue
		}
		pos, ok := as.graph.WorldPosition(id)
		if !ok {
			continue
		}
		sound.Source.SetListenerDistance(pos.Sub(as.camera.Position).Len())
	}
}
