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

// ReadGmsh reads an ASCII Gmsh file (.msh) in format 2.2 or 4.1
func ReadGmsh(filename string) (*mesh.Mesh, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	msh, err := ParseGmsh(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return msh, nil
}

type gmshType struct {
	etype  mesh.ElementType
	nNodes int
}

// gmshElementTypes maps Gmsh element codes to element types. Higher order
// elements list their corner nodes first and keep only those.
var gmshElementTypes = map[int]gmshType{
	1:  {mesh.Line, 2},
	2:  {mesh.Triangle, 3},
	3:  {mesh.Quad, 4},
	4:  {mesh.Tet, 4},
	5:  {mesh.Hex, 8},
	6:  {mesh.Prism, 6},
	7:  {mesh.Pyramid, 5},
	8:  {mesh.Line, 3},
	9:  {mesh.Triangle, 6},
	10: {mesh.Quad, 9},
	11: {mesh.Tet, 10},
	12: {mesh.Hex, 27},
	13: {mesh.Prism, 18},
	14: {mesh.Pyramid, 14},
	16: {mesh.Quad, 8},
	17: {mesh.Hex, 20},
	18: {mesh.Prism, 15},
	19: {mesh.Pyramid, 13},
}

// gmshPoint is the one node element, it carries no cell
const gmshPoint = 15

// ParseGmsh reads an ASCII Gmsh mesh from r. Elements of the highest
// dimension are kept with their physical tag as subdomain id, lower
// dimensional elements with a physical tag mark boundary sides with that tag
// as boundary id. Physical names name the subdomains and side sets.
func ParseGmsh(r io.Reader) (*mesh.Mesh, error) {
	var (
		lr      = newLineReader(bufio.NewScanner(r))
		asm     = newAssembler()
		version string
		// entity (dim, tag) -> first physical tag, format 4 only
		entities = make(map[[2]int]int)
	)
	for lr.Scan() {
		section := strings.TrimSpace(lr.Text())
		if section == "" {
			continue
		}
		if !strings.HasPrefix(section, "$") {
			return nil, fmt.Errorf("expected a section, got %q", section)
		}
		if section != "$MeshFormat" && version == "" {
			return nil, fmt.Errorf("%s before $MeshFormat", section)
		}
		var err error
		switch section {
		case "$MeshFormat":
			version, err = readGmshFormat(lr)
		case "$PhysicalNames":
			err = readGmshPhysicalNames(lr, asm)
		case "$Entities":
			if version == "2.2" {
				err = fmt.Errorf("$Entities in a version 2.2 file")
				break
			}
			err = readGmshEntities(lr, entities)
		case "$Nodes":
			if version == "2.2" {
				err = readGmshNodes2(lr, asm)
			} else {
				err = readGmshNodes4(lr, asm)
			}
		case "$Elements":
			if version == "2.2" {
				err = readGmshElements2(lr, asm)
			} else {
				err = readGmshElements4(lr, asm, entities)
			}
		default:
			err = lr.skipTo("$End" + section[1:])
		}
		if err != nil {
			return nil, err
		}
	}
	if err := lr.Err(); err != nil {
		return nil, err
	}
	if version == "" {
		return nil, fmt.Errorf("missing $MeshFormat")
	}
	return asm.build()
}

func readGmshFormat(lr lineReader) (string, error) {
	f, err := lr.fields("mesh format")
	if err != nil {
		return "", err
	}
	if len(f) < 3 {
		return "", fmt.Errorf("malformed mesh format %q", strings.Join(f, " "))
	}
	var version string
	switch {
	case strings.HasPrefix(f[0], "2.2"):
		version = "2.2"
	case strings.HasPrefix(f[0], "4.1"):
		version = "4.1"
	default:
		return "", fmt.Errorf("unsupported Gmsh version %s", f[0])
	}
	if f[1] != "0" {
		return "", fmt.Errorf("binary Gmsh files are not supported")
	}
	return version, lr.skipTo("$EndMeshFormat")
}

func readGmshPhysicalNames(lr lineReader, asm *assembler) error {
	n, err := lr.ints("physical name count", 1)
	if err != nil {
		return err
	}
	for i := 0; i < n[0]; i++ {
		f, err := lr.fields("physical name")
		if err != nil {
			return err
		}
		if len(f) < 3 {
			return fmt.Errorf("malformed physical name %q", strings.Join(f, " "))
		}
		ids, err := atois("physical name", f[:2])
		if err != nil {
			return err
		}
		name := strings.Trim(strings.Join(f[2:], " "), `"`)
		asm.names[[2]int{ids[0], ids[1]}] = name
	}
	return lr.skipTo("$EndPhysicalNames")
}

func readGmshEntities(lr lineReader, entities map[[2]int]int) error {
	counts, err := lr.ints("entity counts", 4)
	if err != nil {
		return err
	}
	for dim := 0; dim < 4; dim++ {
		// Points carry one coordinate triple, the others a bounding box
		physAt := 7
		if dim == 0 {
			physAt = 4
		}
		for i := 0; i < counts[dim]; i++ {
			f, err := lr.fields("entity")
			if err != nil {
				return err
			}
			if len(f) <= physAt {
				return fmt.Errorf("malformed entity %q", strings.Join(f, " "))
			}
			tag, err := strconv.Atoi(f[0])
			if err != nil {
				return fmt.Errorf("entity: %w", err)
			}
			nPhys, err := strconv.Atoi(f[physAt])
			if err != nil {
				return fmt.Errorf("entity %d: %w", tag, err)
			}
			if nPhys > 0 && len(f) > physAt+1 {
				phys, err := strconv.Atoi(f[physAt+1])
				if err != nil {
					return fmt.Errorf("entity %d: %w", tag, err)
				}
				// Physical tags may be negative to flip orientation
				entities[[2]int{dim, tag}] = abs(phys)
			}
		}
	}
	return lr.skipTo("$EndEntities")
}

func readGmshNodes2(lr lineReader, asm *assembler) error {
	n, err := lr.ints("node count", 1)
	if err != nil {
		return err
	}
	for i := 0; i < n[0]; i++ {
		f, err := lr.fields("node")
		if err != nil {
			return err
		}
		tag, err := strconv.Atoi(f[0])
		if err != nil {
			return fmt.Errorf("node: %w", err)
		}
		p, err := parsePoint("node", f[1:], 3)
		if err != nil {
			return err
		}
		if err := asm.addNode(tag, p); err != nil {
			return err
		}
	}
	return lr.skipTo("$EndNodes")
}

func readGmshNodes4(lr lineReader, asm *assembler) error {
	header, err := lr.ints("node header", 4)
	if err != nil {
		return err
	}
	for b := 0; b < header[0]; b++ {
		block, err := lr.ints("node block", 4)
		if err != nil {
			return err
		}
		// Tags come first, one per line, then the coordinates in the same
		// order
		tags := make([]int, block[3])
		for i := range tags {
			t, err := lr.ints("node tag", 1)
			if err != nil {
				return err
			}
			tags[i] = t[0]
		}
		for _, tag := range tags {
			p, err := lr.point("node", 3)
			if err != nil {
				return err
			}
			if err := asm.addNode(tag, p); err != nil {
				return err
			}
		}
	}
	return lr.skipTo("$EndNodes")
}

func readGmshElements2(lr lineReader, asm *assembler) error {
	n, err := lr.ints("element count", 1)
	if err != nil {
		return err
	}
	for i := 0; i < n[0]; i++ {
		// id type ntags tags... nodes...
		v, err := lr.ints("element", 3)
		if err != nil {
			return err
		}
		id, code, nTags := v[0], v[1], v[2]
		if code == gmshPoint {
			continue
		}
		gt, ok := gmshElementTypes[code]
		if !ok {
			return fmt.Errorf("element %d: unsupported Gmsh element type %d", id, code)
		}
		if len(v) < 3+nTags+gt.nNodes {
			return fmt.Errorf("element %d: expected %d nodes", id, gt.nNodes)
		}
		tag := 0
		if nTags > 0 {
			tag = abs(v[3])
		}
		nodes := v[3+nTags : 3+nTags+gt.etype.NNodes()]
		asm.elems = append(asm.elems, rawElem{id: id, etype: gt.etype, nodes: nodes, tag: tag})
	}
	return lr.skipTo("$EndElements")
}

func readGmshElements4(lr lineReader, asm *assembler, entities map[[2]int]int) error {
	header, err := lr.ints("element header", 4)
	if err != nil {
		return err
	}
	for b := 0; b < header[0]; b++ {
		// entityDim entityTag elementType count
		block, err := lr.ints("element block", 4)
		if err != nil {
			return err
		}
		dim, entity, code, count := block[0], block[1], block[2], block[3]
		gt, ok := gmshElementTypes[code]
		if code != gmshPoint && !ok {
			return fmt.Errorf("entity %d: unsupported Gmsh element type %d", entity, code)
		}
		tag := entities[[2]int{dim, entity}]
		for i := 0; i < count; i++ {
			v, err := lr.ints("element", 2)
			if err != nil {
				return err
			}
			if code == gmshPoint {
				continue
			}
			if len(v) < 1+gt.nNodes {
				return fmt.Errorf("element %d: expected %d nodes", v[0], gt.nNodes)
			}
			asm.elems = append(asm.elems, rawElem{
				id:    v[0],
				etype: gt.etype,
				nodes: v[1 : 1+gt.etype.NNodes()],
				tag:   tag,
			})
		}
	}
	return lr.skipTo("$EndElements")
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}
