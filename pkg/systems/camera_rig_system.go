package systems

import (
	"fmt"
	"log"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/decker502/void/pkg/components"
	"github.com/decker502/void/pkg/config"
	"github.com/decker502/void/pkg/timeline"
	"github.com/decker502/void/pkg/tween"
)

// CameraRigSystem 驱动墙体分组沿 camera.path 移动
//
// 相机固定在原点，"相机前进"通过反向移动整组墙体实现：
// 分组从 start 出发，依次移动到 path 中的每一站。
// 使用与墙体相同的时间线与动画组，保证两者在同一时钟下推进。
type CameraRigSystem struct {
	root  *components.TransformComponent
	chain *timeline.Chain
}

// NewCameraRigSystem 创建相机轨道系统，并把分组放到 start 位置
//
// path 为空时分组停在 start，Start 无操作。
func NewCameraRigSystem(root *components.TransformComponent, viewer *config.ViewerConfig) (*CameraRigSystem, error) {
	start, _ := viewer.ScenePosition(config.ScenePositionStart)
	root.Position = start

	rs := &CameraRigSystem{root: root}
	if len(viewer.Camera.Path) == 0 {
		return rs, nil
	}

	from := func() mgl64.Vec3 { return root.Position }
	apply := func(_ *timeline.Segment, v mgl64.Vec3) { root.Position = v }

	for i, stop := range viewer.Camera.Path {
		target, ok := viewer.ScenePosition(stop.To)
		if !ok {
			return nil, fmt.Errorf("camera path[%d]: unknown scene position %q", i, stop.To)
		}
		timing := timeline.TimingFromSeconds(stop.Delay, stop.Timing)
		seg := timeline.CreateSegment(timeline.KindPosition, from, timing, timeline.Override{}).
			To(target).
			OnUpdate(apply)

		if rs.chain == nil {
			rs.chain = timeline.NewChain(timing, seg)
			continue
		}
		if err := rs.chain.Append(seg); err != nil {
			return nil, err
		}
	}

	log.Printf("[CameraRigSystem] Path with %d stops, start=%v", len(viewer.Camera.Path), start)
	return rs, nil
}

// Start 在动画组上启动轨道
func (rs *CameraRigSystem) Start(g *tween.Group) error {
	if rs.chain == nil {
		return nil
	}
	return rs.chain.Start(g)
}

// Remaining 尚未走完的路段数
func (rs *CameraRigSystem) Remaining() int {
	if rs.chain == nil {
		return 0
	}
	return rs.chain.Pending()
}

// Position 分组当前位置
func (rs *CameraRigSystem) Position() mgl64.Vec3 {
	return rs.root.Position
}
