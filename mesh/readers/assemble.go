package readers

import (
	"bufio"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/notargets/gomeshgen/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// rawElem is an element as listed in a file, its nodes are file node tags
type rawElem struct {
	id    int
	etype mesh.ElementType
	nodes []int
	tag   int
}

// assembler collects the entities of formats whose sections may come in any
// order and builds the mesh once the whole file is read. Elements of the
// highest dimension become the mesh, their tag the subdomain id. Tagged
// elements one dimension lower and the explicit facets become boundary
// sides, their tag the boundary id.
type assembler struct {
	dim    int // coordinate dimension, derived from the nodes when 0
	coords map[int]r3.Vec
	order  []int
	elems  []rawElem
	facets []rawElem
	names  map[[2]int]string // (entity dimension, tag) -> name
}

func newAssembler() *assembler {
	return &assembler{
		coords: make(map[int]r3.Vec),
		names:  make(map[[2]int]string),
	}
}

func (a *assembler) addNode(tag int, p r3.Vec) error {
	if _, dup := a.coords[tag]; dup {
		return fmt.Errorf("node %d is defined twice", tag)
	}
	a.coords[tag] = p
	a.order = append(a.order, tag)
	return nil
}

func (a *assembler) build() (*mesh.Mesh, error) {
	dim := 0
	for _, re := range a.elems {
		dim = max(dim, re.etype.Dim())
	}
	if dim == 0 {
		return nil, fmt.Errorf("no elements found")
	}
	msh := mesh.NewMesh(a.spatialDim(dim))
	nodes := make(map[int]*mesh.Node, len(a.order))
	for _, tag := range a.order {
		nodes[tag] = msh.AddPoint(a.coords[tag])
	}
	resolve := func(re rawElem) ([]*mesh.Node, error) {
		ns := make([]*mesh.Node, len(re.nodes))
		for i, tag := range re.nodes {
			if ns[i] = nodes[tag]; ns[i] == nil {
				return nil, fmt.Errorf("element %d references unknown node %d", re.id, tag)
			}
		}
		return ns, nil
	}

	var (
		sides   = make(sideLookup)
		facets  = a.facets
		usedSub = make(map[int]bool)
	)
	for _, re := range a.elems {
		switch re.etype.Dim() {
		case dim:
			ns, err := resolve(re)
			if err != nil {
				return nil, err
			}
			e := msh.AddElem(re.etype, ns...)
			e.SubdomainID = mesh.SubdomainID(re.tag)
			usedSub[re.tag] = true
			sides.add(e)
		case dim - 1:
			if re.tag > 0 {
				facets = append(facets, re)
			}
		}
	}

	bi := msh.BoundaryInfo()
	usedSide := make(map[int]bool)
	for _, f := range facets {
		ns, err := resolve(f)
		if err != nil {
			return nil, err
		}
		es, ok := sides[keyOf(ns)]
		if !ok {
			return nil, fmt.Errorf("boundary element %d matches no element side", f.id)
		}
		bi.AddSide(es.e, es.side, mesh.BoundaryID(f.tag))
		usedSide[f.tag] = true
	}
	for key, name := range a.names {
		switch {
		case key[0] == dim && usedSub[key[1]]:
			msh.SetSubdomainName(mesh.SubdomainID(key[1]), name)
		case key[0] == dim-1 && usedSide[key[1]]:
			bi.SetSidesetName(mesh.BoundaryID(key[1]), name)
		}
	}
	msh.PrepareForUse()
	return msh, nil
}

// spatialDim is the declared dimension or the smallest one holding every
// node and the elements
func (a *assembler) spatialDim(elemDim int) int {
	if a.dim > 0 {
		return a.dim
	}
	d := elemDim
	for _, p := range a.coords {
		if p.Z != 0 {
			return 3
		}
		if p.Y != 0 && d < 2 {
			d = 2
		}
	}
	return d
}

// sideKey holds the sorted node ids of a side, padded with -1
type sideKey [4]int

func keyOf(nodes []*mesh.Node) sideKey {
	k := sideKey{-1, -1, -1, -1}
	for i, n := range nodes {
		k[i] = n.ID
	}
	sort.Ints(k[:len(nodes)])
	return k
}

type elemSide struct {
	e    *mesh.Elem
	side int
}

// sideLookup finds an element side from its nodes. A side shared by two
// elements resolves to the first one added.
type sideLookup map[sideKey]elemSide

func (sl sideLookup) add(e *mesh.Elem) {
	for s := 0; s < e.NSides(); s++ {
		k := keyOf(e.SideNodes(s))
		if _, ok := sl[k]; !ok {
			sl[k] = elemSide{e, s}
		}
	}
}

// lineReader hands out the fields of a text file line by line
type lineReader struct {
	*bufio.Scanner
}

func newLineReader(sc *bufio.Scanner) lineReader {
	// Long element blocks of large files exceed the default token size
	const maxLine = 10 * 1024 * 1024
	sc.Buffer(make([]byte, 64*1024), maxLine)
	return lineReader{sc}
}

func (lr lineReader) fields(what string) ([]string, error) {
	for lr.Scan() {
		if f := strings.Fields(lr.Text()); len(f) > 0 {
			return f, nil
		}
	}
	if err := lr.Err(); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("unexpected EOF reading %s", what)
}

// ints reads a line of at least n integers
func (lr lineReader) ints(what string, n int) ([]int, error) {
	f, err := lr.fields(what)
	if err != nil {
		return nil, err
	}
	if len(f) < n {
		return nil, fmt.Errorf("%s: expected %d values, got %q", what, n, strings.Join(f, " "))
	}
	return atois(what, f)
}

// point reads a line starting with n coordinates
func (lr lineReader) point(what string, n int) (p r3.Vec, err error) {
	f, err := lr.fields(what)
	if err != nil {
		return p, err
	}
	return parsePoint(what, f, n)
}

func (lr lineReader) skipTo(end string) error {
	for lr.Scan() {
		if strings.TrimSpace(lr.Text()) == end {
			return nil
		}
	}
	if err := lr.Err(); err != nil {
		return err
	}
	return fmt.Errorf("unexpected EOF looking for %s", end)
}

func atois(what string, fields []string) ([]int, error) {
	vals := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", what, err)
		}
		vals[i] = v
	}
	return vals, nil
}

func parsePoint(what string, fields []string, n int) (p r3.Vec, err error) {
	if len(fields) < n {
		return p, fmt.Errorf("%s: expected %d coordinates, got %q", what, n, strings.Join(fields, " "))
	}
	var x [3]float64
	for d := 0; d < n && d < 3; d++ {
		if x[d], err = strconv.ParseFloat(fields[d], 64); err != nil {
			return p, fmt.Errorf("%s: %w", what, err)
		}
	}
	return r3.Vec{X: x[0], Y: x[1], Z: x[2]}, nil
}
