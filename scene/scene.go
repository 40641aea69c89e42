package scene

import (
	"errors"
	"maps"
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/gsplat"
)

// ErrUnknownObject is returned for IDs that are not in the scene.
var ErrUnknownObject = errors.New("scene: unknown object")

// ObjectID identifies an object within one Scene. IDs are never reused.
type ObjectID uint32

// Object is one cloud placed in the scene.
type Object struct {
	ID        ObjectID
	Name      string
	Cloud     *gsplat.Cloud
	Transform mgl32.Mat4 // model to world
	Visible   bool
}

// Scene is a set of objects.
type Scene struct {
	objects map[ObjectID]*Object
	next    ObjectID
	version uint64
}

// New creates an empty scene.
func New() *Scene {
	return &Scene{objects: make(map[ObjectID]*Object), next: 1}
}

// Add takes ownership of cloud and returns the new object's ID. The object
// starts visible with an identity transform. A nil cloud adds an empty one.
func (s *Scene) Add(name string, cloud *gsplat.Cloud) ObjectID {
	owned := gsplat.NewCloud()
	if cloud != nil {
		owned = cloud.Take()
	}
	id := s.next
	s.next++
	s.objects[id] = &Object{
		ID:        id,
		Name:      name,
		Cloud:     owned,
		Transform: mgl32.Ident4(),
		Visible:   true,
	}
	s.version++
	return id
}

// Remove deletes the object and releases its GPU mirror. It reports whether
// the object existed.
func (s *Scene) Remove(id ObjectID) bool {
	obj, ok := s.objects[id]
	if !ok {
		return false
	}
	obj.Cloud.ReleaseBuffer()
	delete(s.objects, id)
	s.version++
	return true
}

// Clear removes every object.
func (s *Scene) Clear() {
	for id := range s.objects {
		s.Remove(id)
	}
}

// Object returns the object with the given ID. The cloud may be edited in
// place; the scene sees the changes on the next Render.
func (s *Scene) Object(id ObjectID) (*Object, bool) {
	obj, ok := s.objects[id]
	return obj, ok
}

// SetTransform sets the model-to-world matrix of an object. The matrix must
// be invertible.
func (s *Scene) SetTransform(id ObjectID, m mgl32.Mat4) error {
	obj, ok := s.objects[id]
	if !ok {
		return ErrUnknownObject
	}
	if m.Det() == 0 {
		return gsplat.ErrDegenerateTransform
	}
	obj.Transform = m
	s.version++
	return nil
}

// SetVisible shows or hides an object.
func (s *Scene) SetVisible(id ObjectID, visible bool) error {
	obj, ok := s.objects[id]
	if !ok {
		return ErrUnknownObject
	}
	if obj.Visible != visible {
		obj.Visible = visible
		s.version++
	}
	return nil
}

// Len returns the number of objects.
func (s *Scene) Len() int { return len(s.objects) }

// Version increases on every structural change.
func (s *Scene) Version() uint64 { return s.version }

// IDs returns the object IDs in ascending order.
func (s *Scene) IDs() []ObjectID {
	return slices.Sorted(maps.Keys(s.objects))
}

// GaussianCount returns the number of Gaussians over all objects.
func (s *Scene) GaussianCount() int {
	n := 0
	for _, obj := range s.objects {
		n += obj.Cloud.Len()
	}
	return n
}

// Bounds returns the world-space box enclosing the transformed bounds of
// every visible, non-empty object. ok is false when there is none.
func (s *Scene) Bounds() (lo, hi mgl32.Vec3, ok bool) {
	for _, id := range s.IDs() {
		obj := s.objects[id]
		if !obj.Visible || obj.Cloud.IsEmpty() {
			continue
		}
		olo, ohi := worldBounds(obj)
		if !ok {
			lo, hi, ok = olo, ohi, true
			continue
		}
		for a := range 3 {
			lo[a] = min(lo[a], olo[a])
			hi[a] = max(hi[a], ohi[a])
		}
	}
	return lo, hi, ok
}

// worldBounds transforms the eight corners of the object's local box.
func worldBounds(obj *Object) (lo, hi mgl32.Vec3) {
	blo, bhi := obj.Cloud.Bounds()
	for i := range 8 {
		c := mgl32.Vec3{blo[0], blo[1], blo[2]}
		if i&1 != 0 {
			c[0] = bhi[0]
		}
		if i&2 != 0 {
			c[1] = bhi[1]
		}
		if i&4 != 0 {
			c[2] = bhi[2]
		}
		w := mgl32.TransformCoordinate(c, obj.Transform)
		if i == 0 {
			lo, hi = w, w
			continue
		}
		for a := range 3 {
			lo[a] = min(lo[a], w[a])
			hi[a] = max(hi[a], w[a])
		}
	}
	return lo, hi
}

// Merge bakes every visible object into one world-space cloud, for export.
// The scene is unchanged.
func (s *Scene) Merge() (*gsplat.Cloud, error) {
	out := gsplat.NewCloud()
	out.Reserve(s.GaussianCount())
	for _, id := range s.IDs() {
		obj := s.objects[id]
		if !obj.Visible || obj.Cloud.IsEmpty() {
			continue
		}
		part := gsplat.NewCloudFrom(obj.Cloud.Data())
		if err := part.Transform(obj.Transform); err != nil {
			return nil, err
		}
		out.AddRange(part.Data())
	}
	return out, nil
}
