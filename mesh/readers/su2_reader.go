package readers

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/notargets/gomeshgen/mesh"
)

// ReadSU2 reads an SU2 native mesh file (.su2)
func ReadSU2(filename string) (*mesh.Mesh, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	msh, err := ParseSU2(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return msh, nil
}

// su2ElementTypes maps the VTK codes SU2 uses to element types
var su2ElementTypes = map[int]mesh.ElementType{
	3:  mesh.Line,
	5:  mesh.Triangle,
	9:  mesh.Quad,
	10: mesh.Tet,
	12: mesh.Hex,
	13: mesh.Prism,
	14: mesh.Pyramid,
}

// ParseSU2 reads a single zone SU2 mesh from r. Every element goes into
// subdomain 0 and markers become side sets numbered in file order and named
// by their MARKER_TAG.
func ParseSU2(r io.Reader) (*mesh.Mesh, error) {
	var (
		lr  = newLineReader(bufio.NewScanner(r))
		asm = newAssembler()
	)
	// keyword reads the next "KEY= value" line, skipping comments
	keyword := func(what string) (string, string, error) {
		for {
			f, err := lr.fields(what)
			if err != nil {
				return "", "", err
			}
			if strings.HasPrefix(f[0], "%") {
				continue
			}
			key, val, ok := strings.Cut(strings.Join(f, " "), "=")
			if !ok {
				return "", "", fmt.Errorf("expected %s, got %q", what, strings.Join(f, " "))
			}
			return strings.TrimSpace(key), strings.TrimSpace(val), nil
		}
	}
	count := func(key string) (int, error) {
		k, v, err := keyword(key)
		if err != nil {
			return 0, err
		}
		if k != key {
			return 0, fmt.Errorf("expected %s, got %s", key, k)
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", key, err)
		}
		return n, nil
	}
	// element reads "type nodes... [index]"
	element := func(id int) (rawElem, error) {
		v, err := lr.ints("element", 2)
		if err != nil {
			return rawElem{}, err
		}
		t, ok := su2ElementTypes[v[0]]
		if !ok {
			return rawElem{}, fmt.Errorf("element %d: unsupported SU2 element type %d", id, v[0])
		}
		if len(v) < 1+t.NNodes() {
			return rawElem{}, fmt.Errorf("element %d: expected %d nodes", id, t.NNodes())
		}
		return rawElem{id: id, etype: t, nodes: v[1 : 1+t.NNodes()]}, nil
	}

	ndime, err := count("NDIME")
	if err != nil {
		return nil, err
	}
	if ndime < 1 || ndime > 3 {
		return nil, fmt.Errorf("invalid NDIME %d", ndime)
	}
	asm.dim = ndime

	nelem, err := count("NELEM")
	if err != nil {
		return nil, err
	}
	for i := 0; i < nelem; i++ {
		re, err := element(i)
		if err != nil {
			return nil, err
		}
		asm.elems = append(asm.elems, re)
	}

	npoin, err := count("NPOIN")
	if err != nil {
		return nil, err
	}
	for i := 0; i < npoin; i++ {
		p, err := lr.point("node", ndime)
		if err != nil {
			return nil, err
		}
		if err := asm.addNode(i, p); err != nil {
			return nil, err
		}
	}

	nmark, err := count("NMARK")
	if err != nil {
		return nil, err
	}
	for m := 0; m < nmark; m++ {
		k, name, err := keyword("MARKER_TAG")
		if err != nil {
			return nil, err
		}
		if k != "MARKER_TAG" {
			return nil, fmt.Errorf("expected MARKER_TAG, got %s", k)
		}
		n, err := count("MARKER_ELEMS")
		if err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			re, err := element(i)
			if err != nil {
				return nil, fmt.Errorf("marker %s: %w", name, err)
			}
			re.tag = m
			asm.facets = append(asm.facets, re)
		}
		asm.names[[2]int{ndime - 1, m}] = name
	}
	return asm.build()
}
