package arena

import (
	"github.com/cory-johannsen/armory/internal/game/geom"
	"github.com/cory-johannsen/armory/internal/game/weapon"
)

// Mounter is implemented by holders that expose world transforms for their
// attach points. Holders without it mount at their Location.
type Mounter interface {
	MountTransform(point string) (geom.Transform, bool)
}

// Mesh is a weapon model with named sockets. Socket transforms follow the
// holder as it moves.
type Mesh struct {
	sockets map[string]geom.Transform
	holder  weapon.Holder
	point   string
	offset  geom.Transform
}

// NewMesh returns a detached mesh with sockets relative to its origin.
func NewMesh(sockets map[string]geom.Transform) *Mesh {
	s := make(map[string]geom.Transform, len(sockets))
	for k, v := range sockets {
		s[k] = v
	}
	return &Mesh{sockets: s}
}

// Attach implements weapon.Mesh.
func (m *Mesh) Attach(h weapon.Holder, point string, offset geom.Transform) {
	m.holder = h
	m.point = point
	m.offset = offset
}

// Detach implements weapon.Mesh.
func (m *Mesh) Detach() {
	m.holder = nil
	m.point = ""
	m.offset = geom.Transform{}
}

// Attached reports whether the mesh is mounted, and where.
func (m *Mesh) Attached() (string, bool) {
	return m.point, m.holder != nil
}

// Socket implements weapon.Mesh. A detached mesh has no world sockets.
func (m *Mesh) Socket(name string) (geom.Transform, bool) {
	local, ok := m.sockets[name]
	if !ok || m.holder == nil {
		return geom.Transform{}, false
	}
	parent := geom.Transform{Location: m.holder.Location()}
	if mt, ok := m.holder.(Mounter); ok {
		if t, ok := mt.MountTransform(m.point); ok {
			parent = t
		}
	}
	return parent.Compose(m.offset).Compose(local), true
}
