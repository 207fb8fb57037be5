package mesh

import "fmt"

// Handle carries the single owner of a mesh between pipeline stages. The
// producer fills it with Set, exactly one consumer moves the mesh out with
// Take after which the handle is empty.
type Handle struct {
	name string
	m    *Mesh
	// taken is set once the mesh has moved out
	taken bool
}

// NewHandle returns an empty handle for the output of the named producer
func NewHandle(name string) *Handle {
	return &Handle{name: name}
}

func (h *Handle) Name() string { return h.name }

// Set hands ownership of m to the handle
func (h *Handle) Set(m *Mesh) {
	h.m = m
	h.taken = false
}

// Valid reports whether a mesh is available to Take
func (h *Handle) Valid() bool { return h.m != nil }

// Take moves the mesh out of the handle
func (h *Handle) Take() (*Mesh, error) {
	if h.m == nil {
		if h.taken {
			return nil, fmt.Errorf("%w: output of %q", ErrMeshTaken, h.name)
		}
		return nil, fmt.Errorf("output of %q has not been generated", h.name)
	}
	m := h.m
	h.m = nil
	h.taken = true
	return m, nil
}
