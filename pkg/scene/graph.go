// Package scene 提供场景图与相机
//
// 场景图建立在 ecs.EntityManager 之上：拥有 SceneNodeComponent 的实体即"在场景中"。
// 墙体统一挂在一个分组（Root）下，分组的位置由相机轨道动画驱动，
// 相机本身固定在原点，这与原始展览中移动整组墙体的做法一致。
package scene

import (
	"log"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/decker502/void/pkg/components"
	"github.com/decker502/void/pkg/ecs"
)

// Graph 场景图
//
// Insert/Remove/Release 可能在延迟销毁的计时器 goroutine 上调用，
// 依赖 EntityManager 的锁；released 由 mu 保护。
type Graph struct {
	em   *ecs.EntityManager
	root *components.TransformComponent

	mu       sync.Mutex
	released map[ecs.EntityID]bool
}

// NewGraph 创建场景图
func NewGraph(em *ecs.EntityManager) *Graph {
	return &Graph{
		em:       em,
		root:     &components.TransformComponent{Scale: mgl64.Vec3{1, 1, 1}},
		released: make(map[ecs.EntityID]bool),
	}
}

// EntityManager 返回底层实体管理器
func (g *Graph) EntityManager() *ecs.EntityManager {
	return g.em
}

// Root 返回墙体分组的变换
func (g *Graph) Root() *components.TransformComponent {
	return g.root
}

// CreateNode 创建一个尚未插入场景的墙体节点
func (g *Graph) CreateNode(name string, mesh *components.MeshComponent, transform *components.TransformComponent) ecs.EntityID {
	id := g.em.CreateEntity()
	g.em.AddComponent(id, &components.WallComponent{Name: name})
	g.em.AddComponent(id, mesh)
	g.em.AddComponent(id, transform)
	return id
}

// Insert 把节点插入场景，已在场景中时无操作
func (g *Graph) Insert(id ecs.EntityID) {
	if !g.em.EntityExists(id) || g.isReleased(id) {
		log.Printf("[SceneGraph] Warning: insert of unknown or released node %d ignored", id)
		return
	}
	if ecs.HasComponent[*components.SceneNodeComponent](g.em, id) {
		return
	}
	g.em.AddComponent(id, &components.SceneNodeComponent{Parent: "walls"})
}

// Remove 把节点移出场景，不在场景中时无操作
func (g *Graph) Remove(id ecs.EntityID) {
	ecs.RemoveComponent[*components.SceneNodeComponent](g.em, id)
}

// Contains 节点是否在场景中
func (g *Graph) Contains(id ecs.EntityID) bool {
	return ecs.HasComponent[*components.SceneNodeComponent](g.em, id)
}

// Release 释放节点的几何与材质，并标记实体待删除
// 重复调用无副作用
func (g *Graph) Release(id ecs.EntityID) {
	g.mu.Lock()
	if g.released[id] {
		g.mu.Unlock()
		return
	}
	g.released[id] = true
	g.mu.Unlock()

	if mesh, ok := ecs.GetComponent[*components.MeshComponent](g.em, id); ok {
		mesh.ReleaseGeometry()
		mesh.ReleaseMaterial()
	}
	g.em.DestroyEntity(id)
}

func (g *Graph) isReleased(id ecs.EntityID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.released[id]
}

// Nodes 返回所有在场景中的节点（按ID升序）
func (g *Graph) Nodes() []ecs.EntityID {
	return ecs.GetEntitiesWith1[*components.SceneNodeComponent](g.em)
}

// WorldMatrix 返回节点的世界矩阵（分组矩阵 * 局部矩阵）
func (g *Graph) WorldMatrix(id ecs.EntityID) (mgl64.Mat4, bool) {
	transform, ok := ecs.GetComponent[*components.TransformComponent](g.em, id)
	if !ok {
		return mgl64.Ident4(), false
	}
	return g.root.Matrix().Mul4(transform.Matrix()), true
}

// WorldPosition 返回节点中心的世界坐标
func (g *Graph) WorldPosition(id ecs.EntityID) (mgl64.Vec3, bool) {
	transform, ok := ecs.GetComponent[*components.TransformComponent](g.em, id)
	if !ok {
		return mgl64.Vec3{}, false
	}
	return mgl64.TransformCoordinate(transform.Position, g.root.Matrix()), true
}
