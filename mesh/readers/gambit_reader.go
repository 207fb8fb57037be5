package readers

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/notargets/gomeshgen/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// ReadGambitNeutral reads a Gambit neutral file (.neu)
func ReadGambitNeutral(filename string) (*mesh.Mesh, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	msh, err := ParseGambitNeutral(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return msh, nil
}

// gambitElementTypes maps the Gambit NTYPE codes to element types
var gambitElementTypes = map[int]mesh.ElementType{
	1: mesh.Line,
	2: mesh.Quad,
	3: mesh.Triangle,
	4: mesh.Hex,
	5: mesh.Prism,
	6: mesh.Tet,
	7: mesh.Pyramid,
}

// ParseGambitNeutral reads the neutral format from r. Element groups become
// subdomains named after the group entity, element boundary sets become
// side sets and node boundary sets become node sets, both numbered in file
// order.
func ParseGambitNeutral(r io.Reader) (*mesh.Mesh, error) {
	var (
		scanner = bufio.NewScanner(r)
		msh     *mesh.Mesh
		nodes   = make(map[int]*mesh.Node)
		elems   = make(map[int]*mesh.Elem)
		// Control variables from header
		numnp, nelem, ndfcd int
	)

	next := func(what string) ([]string, error) {
		if !scanner.Scan() {
			return nil, fmt.Errorf("unexpected EOF reading %s", what)
		}
		return strings.Fields(scanner.Text()), nil
	}

	// Read control info section
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.Contains(line, "NUMNP") && strings.Contains(line, "NELEM") {
			// Next line contains the actual values
			values, err := next("control header")
			if err != nil {
				return nil, err
			}
			if len(values) < 5 {
				return nil, fmt.Errorf("malformed control line %q", strings.Join(values, " "))
			}
			counts := make([]int, 5)
			for i := range counts {
				if counts[i], err = strconv.Atoi(values[i]); err != nil {
					return nil, fmt.Errorf("malformed control line: %w", err)
				}
			}
			// NGRPS and NBSETS are implied by the section headers
			numnp, nelem, ndfcd = counts[0], counts[1], counts[4]
			break
		}
	}
	if ndfcd == 0 {
		return nil, fmt.Errorf("missing control info section")
	}
	msh = mesh.NewMesh(ndfcd)

	// Continue reading sections
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "ENDOFSECTION":

		case strings.Contains(line, "NODAL COORDINATES"):
			for i := 0; i < numnp; i++ {
				fields, err := next("nodes")
				if err != nil {
					return nil, err
				}
				if len(fields) < 1+ndfcd {
					return nil, fmt.Errorf("malformed node line %q", strings.Join(fields, " "))
				}
				nodeID, err := strconv.Atoi(fields[0])
				if err != nil {
					return nil, fmt.Errorf("node id: %w", err)
				}
				var x [3]float64
				for d := 0; d < ndfcd && d < 3; d++ {
					if x[d], err = strconv.ParseFloat(fields[1+d], 64); err != nil {
						return nil, fmt.Errorf("node %d: %w", nodeID, err)
					}
				}
				nodes[nodeID] = msh.AddPoint(r3.Vec{X: x[0], Y: x[1], Z: x[2]})
			}

		case strings.Contains(line, "ELEMENTS/CELLS"):
			for i := 0; i < nelem; i++ {
				fields, err := next("elements")
				if err != nil {
					return nil, err
				}
				if len(fields) < 3 {
					return nil, fmt.Errorf("malformed element line %q", strings.Join(fields, " "))
				}
				elemID, _ := strconv.Atoi(fields[0])
				gambitType, _ := strconv.Atoi(fields[1])
				numNodes, _ := strconv.Atoi(fields[2])
				etype, ok := gambitElementTypes[gambitType]
				if !ok {
					return nil, fmt.Errorf("element %d: unsupported Gambit element type %d", elemID, gambitType)
				}
				if numNodes != etype.NNodes() {
					return nil, fmt.Errorf("element %d: %s with %d nodes is not supported", elemID, etype, numNodes)
				}
				// Long connectivity lists wrap onto continuation lines
				for len(fields) < 3+numNodes {
					more, err := next("element connectivity")
					if err != nil {
						return nil, err
					}
					fields = append(fields, more...)
				}
				enodes := make([]*mesh.Node, numNodes)
				for j := range enodes {
					nodeID, _ := strconv.Atoi(fields[3+j])
					if enodes[j] = nodes[nodeID]; enodes[j] == nil {
						return nil, fmt.Errorf("element %d references unknown node %d", elemID, nodeID)
					}
				}
				elems[elemID] = msh.AddElem(etype, enodes...)
			}

		case strings.Contains(line, "ELEMENT GROUP"):
			if err := readGroup(scanner, msh, elems); err != nil {
				return nil, err
			}

		case strings.Contains(line, "BOUNDARY CONDITIONS"):
			if err := readBoundarySet(scanner, msh, nodes, elems); err != nil {
				return nil, err
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %v", err)
	}

	msh.PrepareForUse()
	return msh, nil
}

// readGroup reads one ELEMENT GROUP section
func readGroup(scanner *bufio.Scanner, msh *mesh.Mesh, elems map[int]*mesh.Elem) error {
	if !scanner.Scan() {
		return fmt.Errorf("unexpected EOF reading element group")
	}
	var (
		groupID, numElems, nflags int
		parts                     = strings.Fields(scanner.Text())
	)
	for i := 0; i < len(parts)-1; i++ {
		switch parts[i] {
		case "GROUP:":
			groupID, _ = strconv.Atoi(parts[i+1])
		case "ELEMENTS:":
			numElems, _ = strconv.Atoi(parts[i+1])
		case "NFLAGS:":
			nflags, _ = strconv.Atoi(parts[i+1])
		}
	}
	if !scanner.Scan() {
		return fmt.Errorf("unexpected EOF reading group %d", groupID)
	}
	msh.SetSubdomainName(mesh.SubdomainID(groupID), strings.TrimSpace(scanner.Text()))
	if nflags > 0 && !scanner.Scan() {
		return fmt.Errorf("unexpected EOF reading group %d flags", groupID)
	}

	elementsRead := 0
	for elementsRead < numElems && scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "ENDOFSECTION" {
			break
		}
		for _, field := range strings.Fields(line) {
			elemID, err := strconv.Atoi(field)
			if err != nil {
				return fmt.Errorf("group %d: %w", groupID, err)
			}
			e, ok := elems[elemID]
			if !ok {
				return fmt.Errorf("group %d references unknown element %d", groupID, elemID)
			}
			e.SubdomainID = mesh.SubdomainID(groupID)
			elementsRead++
		}
	}
	return nil
}

// readBoundarySet reads one BOUNDARY CONDITIONS section. Gambit faces are
// numbered from one in the same order as the element sides.
func readBoundarySet(scanner *bufio.Scanner, msh *mesh.Mesh, nodes map[int]*mesh.Node,
	elems map[int]*mesh.Elem) error {
	if !scanner.Scan() {
		return fmt.Errorf("unexpected EOF reading boundary set")
	}
	// Format: NAME ITYPE NENTRY NVALUES IBCODE1 ...
	parts := strings.Fields(scanner.Text())
	if len(parts) < 3 {
		return fmt.Errorf("malformed boundary set header %q", strings.Join(parts, " "))
	}
	var (
		bi        = msh.BoundaryInfo()
		bcName    = parts[0]
		itype, _  = strconv.Atoi(parts[1]) // 0=node, 1=element/cell
		nentry, _ = strconv.Atoi(parts[2])
		id        mesh.BoundaryID
	)
	if ids := bi.BoundaryIDs(); len(ids) > 0 {
		id = ids[len(ids)-1] + 1
	}
	for i := 0; i < nentry; i++ {
		if !scanner.Scan() {
			return fmt.Errorf("unexpected EOF reading boundary set %s", bcName)
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch itype {
		case 1:
			if len(fields) < 3 {
				return fmt.Errorf("boundary set %s: malformed entry %q", bcName, strings.Join(fields, " "))
			}
			elemID, _ := strconv.Atoi(fields[0])
			faceID, _ := strconv.Atoi(fields[2])
			e, ok := elems[elemID]
			if !ok {
				return fmt.Errorf("boundary set %s references unknown element %d", bcName, elemID)
			}
			if faceID < 1 || faceID > e.NSides() {
				return fmt.Errorf("boundary set %s: element %d has no face %d", bcName, elemID, faceID)
			}
			bi.AddSide(e, faceID-1, id)
		default:
			nodeID, _ := strconv.Atoi(fields[0])
			n, ok := nodes[nodeID]
			if !ok {
				return fmt.Errorf("boundary set %s references unknown node %d", bcName, nodeID)
			}
			bi.AddNode(n, id)
		}
	}
	if itype == 1 {
		bi.SetSidesetName(id, bcName)
	} else {
		bi.SetNodesetName(id, bcName)
	}
	return nil
}
