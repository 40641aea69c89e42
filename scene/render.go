package scene

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/gsplat"
	"github.com/gogpu/gsplat/render"
)

// Render draws every visible object into target, farthest first by the
// depth of its world bounds center. Each object is drawn with view·model.
// The returned stats sum the per-object counts and times.
func (s *Scene) Render(r *render.Renderer, view, proj mgl32.Mat4, target render.RenderTarget) (render.RenderStats, error) {
	var total render.RenderStats
	if r == nil {
		return total, render.ErrNotInitialized
	}
	start := time.Now()

	type entry struct {
		obj   *Object
		depth float32
	}
	order := make([]entry, 0, len(s.objects))
	for _, id := range s.IDs() {
		obj := s.objects[id]
		if !obj.Visible || obj.Cloud.IsEmpty() {
			continue
		}
		lo, hi := worldBounds(obj)
		order = append(order, entry{obj, render.Depth(view, lo.Add(hi).Mul(0.5))})
	}
	// Stable on ties so equal-depth objects keep ID order.
	slices.SortStableFunc(order, func(a, b entry) int { return cmp.Compare(b.depth, a.depth) })

	for _, e := range order {
		if err := r.Render(e.obj.Cloud, view.Mul4(e.obj.Transform), proj, target, nil); err != nil {
			return total, fmt.Errorf("scene: object %d (%s): %w", e.obj.ID, e.obj.Name, err)
		}
		st := r.Stats()
		total.Total += st.Total
		total.Visible += st.Visible
		total.Culled += st.Culled
		total.SortTime += st.SortTime
		total.DrawTime += st.DrawTime
		total.FrameIndex = st.FrameIndex
		total.SortBackend = st.SortBackend
		total.DrawBackend = st.DrawBackend
	}
	total.TotalTime = time.Since(start)
	gsplat.Logger().Debug("scene: frame", "objects", len(order), "stats", total.String())
	return total, nil
}
