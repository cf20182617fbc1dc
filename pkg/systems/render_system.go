package systems

import (
	"image/color"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/image/colornames"

	"github.com/decker502/void/pkg/components"
	"github.com/decker502/void/pkg/config"
	"github.com/decker502/void/pkg/ecs"
	"github.com/decker502/void/pkg/scene"
)

// 光照参数（环境光 + 单方向光）
const (
	ambientLight = 0.45
	diffuseLight = 0.55
)

var lightDirection = mgl64.Vec3{-0.3, 1, 0.6}.Normalize()

// DrawItem 一个待绘制的墙面（已投影到屏幕）
type DrawItem struct {
	ID       ecs.EntityID
	Vertices []ebiten.Vertex
	Indices  []uint16
	Texture  *ebiten.Image
	Depth    float64 // 视空间平均深度，越大越远
	Mirrored bool
}

// RenderSystem 把场景中的墙体绘制到屏幕
//
// 软件投影：每面墙四个顶点经 P*V*M 变换后用 DrawTriangles 绘制，
// 按深度从远到近排序（画家算法），因此支持半透明。
// 开启 mirror 时先绘制墙体关于地面的镜像。
type RenderSystem struct {
	graph       *scene.Graph
	camera      *scene.Camera
	mirror      config.MirrorConfig
	mirrorColor color.RGBA
	background  color.Color

	items []DrawItem
}

// NewRenderSystem 创建渲染系统
func NewRenderSystem(graph *scene.Graph, camera *scene.Camera, mirror config.MirrorConfig) *RenderSystem {
	tint, ok := colornames.Map[mirror.Color]
	if !ok {
		tint = colornames.White
	}
	return &RenderSystem{
		graph:       graph,
		camera:      camera,
		mirror:      mirror,
		mirrorColor: tint,
		background:  colornames.Black,
	}
}

// Draw 绘制所有在场景中的墙体
func (rs *RenderSystem) Draw(screen *ebiten.Image) {
	screen.Fill(rs.background)

	w, h := screen.Bounds().Dx(), screen.Bounds().Dy()
	rs.items = rs.BuildDrawList(w, h, rs.items[:0])

	op := triangleOptions()
	for i := range rs.items {
		item := &rs.items[i]
		if item.Texture == nil {
			continue
		}
		screen.DrawTriangles(item.Vertices, item.Indices, item.Texture, op)
	}
}

// triangleOptions 纹理按重复方式寻址，旋转后超出 [0, 1] 的坐标会平铺
func triangleOptions() *ebiten.DrawTrianglesOptions {
	return &ebiten.DrawTrianglesOptions{Address: ebiten.AddressRepeat}
}

// BuildDrawList 投影所有可渲染节点并按从远到近排序
//
// 穿过近平面的墙面被裁剪，只保留相机前方的部分。
func (rs *RenderSystem) BuildDrawList(width, height int, dst []DrawItem) []DrawItem {
	em := rs.graph.EntityManager()
	viewProj := rs.camera.ViewProjection(width, height)
	floorY := rs.graph.Root().Position.Y()

	for _, id := range rs.graph.Nodes() {
		mesh, ok := ecs.GetComponent[*components.MeshComponent](em, id)
		if !ok || !mesh.Renderable() {
			continue
		}
		transform, ok := ecs.GetComponent[*components.TransformComponent](em, id)
		if !ok {
			continue
		}
		world, _ := rs.graph.WorldMatrix(id)
		normal := rs.graph.Root().Quat().Rotate(transform.Normal())

		if item, ok := rs.project(id, mesh, world, normal, viewProj, width, height, false); ok {
			dst = append(dst, item)
		}
		if rs.mirror.Enabled {
			reflect := mgl64.Translate3D(0, 2*floorY, 0).Mul4(mgl64.Scale3D(1, -1, 1))
			mirrored := reflect.Mul4(world)
			mirroredNormal := mgl64.Vec3{normal.X(), -normal.Y(), normal.Z()}
			if item, ok := rs.project(id, mesh, mirrored, mirroredNormal, viewProj, width, height, true); ok {
				dst = append(dst, item)
			}
		}
	}

	sort.SliceStable(dst, func(i, j int) bool {
		return dst[i].Depth > dst[j].Depth
	})
	return dst
}

func (rs *RenderSystem) project(id ecs.EntityID, mesh *components.MeshComponent, world mgl64.Mat4, normal mgl64.Vec3, viewProj mgl64.Mat4, width, height int, mirrored bool) (DrawItem, bool) {
	mat := mesh.Material
	tex := mat.Texture

	var texW, texH float64 = 1, 1
	if tex != nil {
		b := tex.Bounds()
		texW, texH = float64(b.Dx()), float64(b.Dy())
	}

	shade := Lambert(normal, lightDirection, mat.DoubleSide)
	alpha := mat.Opacity
	r, g, b := shade, shade, shade
	if mirrored {
		alpha *= rs.mirror.Opacity
		r *= float64(rs.mirrorColor.R) / 255
		g *= float64(rs.mirrorColor.G) / 255
		b *= float64(rs.mirrorColor.B) / 255
	}

	item := DrawItem{
		ID:       id,
		Vertices: make([]ebiten.Vertex, 0, len(mesh.Vertices)),
		Indices:  mesh.Indices,
		Texture:  tex,
		Mirrored: mirrored,
	}

	var depth float64
	emit := func(cv clipVertex) uint16 {
		sx, sy := scene.ClipToScreen(cv.clip, width, height)
		depth += cv.clip.W()
		u, vv := rotateUV(cv.u, cv.v, mat.Rotation)
		item.Vertices = append(item.Vertices, ebiten.Vertex{
			DstX:   float32(sx),
			DstY:   float32(sy),
			SrcX:   float32(u * texW),
			SrcY:   float32(vv * texH),
			ColorR: float32(r * alpha),
			ColorG: float32(g * alpha),
			ColorB: float32(b * alpha),
			ColorA: float32(alpha),
		})
		return uint16(len(item.Vertices) - 1)
	}

	verts := make([]clipVertex, len(mesh.Vertices))
	inside := true
	for i, v := range mesh.Vertices {
		p := mgl64.TransformCoordinate(v.Local, world)
		verts[i] = clipVertex{clip: viewProj.Mul4x1(p.Vec4(1)), u: v.U, v: v.V}
		if verts[i].nearDistance() < 0 {
			inside = false
		}
	}

	if inside {
		for _, cv := range verts {
			emit(cv)
		}
		item.Indices = mesh.Indices
	} else {
		// 逐个三角形按近平面裁剪，结果按扇形重新三角化
		item.Indices = nil
		for i := 0; i+2 < len(mesh.Indices); i += 3 {
			poly := clipNear([]clipVertex{
				verts[mesh.Indices[i]],
				verts[mesh.Indices[i+1]],
				verts[mesh.Indices[i+2]],
			})
			if len(poly) < 3 {
				continue
			}
			first := emit(poly[0])
			prev := emit(poly[1])
			for _, cv := range poly[2:] {
				cur := emit(cv)
				item.Indices = append(item.Indices, first, prev, cur)
				prev = cur
			}
		}
	}

	if len(item.Vertices) == 0 {
		return DrawItem{}, false
	}
	item.Depth = depth / float64(len(item.Vertices))
	return item, true
}

// clipVertex 裁剪空间中的顶点
type clipVertex struct {
	clip mgl64.Vec4
	u, v float64
}

// nearDistance 到近平面的有符号距离（z = -w），非负表示在近平面之前
func (cv clipVertex) nearDistance() float64 {
	return cv.clip.Z() + cv.clip.W()
}

func lerpClip(a, b clipVertex, t float64) clipVertex {
	return clipVertex{
		clip: a.clip.Add(b.clip.Sub(a.clip).Mul(t)),
		u:    a.u + (b.u-a.u)*t,
		v:    a.v + (b.v-a.v)*t,
	}
}

// clipNear 用近平面裁剪凸多边形（Sutherland-Hodgman）
func clipNear(poly []clipVertex) []clipVertex {
	out := make([]clipVertex, 0, len(poly)+1)
	for i, cur := range poly {
		prev := poly[(i+len(poly)-1)%len(poly)]
		dc, dp := cur.nearDistance(), prev.nearDistance()
		if (dc >= 0) != (dp >= 0) {
			out = append(out, lerpClip(prev, cur, dp/(dp-dc)))
		}
		if dc >= 0 {
			out = append(out, cur)
		}
	}
	return out
}

// Lambert 环境光 + 漫反射亮度
// 双面材质取法线点积的绝对值
func Lambert(normal, light mgl64.Vec3, doubleSide bool) float64 {
	d := normal.Dot(light)
	if doubleSide {
		d = math.Abs(d)
	}
	return ambientLight + diffuseLight*math.Max(d, 0)
}

// rotateUV 绕纹理中心旋转纹理坐标
func rotateUV(u, v, angle float64) (float64, float64) {
	if angle == 0 {
		return u, v
	}
	s, c := math.Sincos(angle)
	du, dv := u-0.5, v-0.5
	return du*c - dv*s + 0.5, du*s + dv*c + 0.5
}
