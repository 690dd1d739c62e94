package mesh

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ReadGambitNeutral reads a Gambit neutral file (.neu)
func ReadGambitNeutral(filename string) (m *Mesh, err error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	if m, err = ReadGambit(file); err != nil {
		return nil, errors.Wrapf(err, "reading %s", filename)
	}
	return
}

// ReadGambit reads the nodes, simplicial cells and boundary condition sets of
// a Gambit neutral file. Boundary set i (from zero) gets marker i+1, named by
// the set name.
func ReadGambit(r io.Reader) (m *Mesh, err error) {
	m = NewMesh()
	scanner := bufio.NewScanner(r)

	// Control variables from header
	var numnp, nelem, nbsets, ndfcd int
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.Contains(line, "NUMNP") && strings.Contains(line, "NELEM") {
			if !scanner.Scan() {
				return nil, fmt.Errorf("unexpected EOF after control header")
			}
			values := strings.Fields(scanner.Text())
			if len(values) < 5 {
				return nil, fmt.Errorf("invalid control info: %s", scanner.Text())
			}
			numnp, _ = strconv.Atoi(values[0])
			nelem, _ = strconv.Atoi(values[1])
			nbsets, _ = strconv.Atoi(values[3])
			ndfcd, _ = strconv.Atoi(values[4])
			break
		}
	}
	if numnp == 0 {
		return nil, fmt.Errorf("could not find control info section")
	}
	if ndfcd < 2 || ndfcd > 3 {
		return nil, fmt.Errorf("unsupported coordinate dimension %d", ndfcd)
	}

	var bcIdx, numCells int
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "ENDOFSECTION":
			continue
		case strings.Contains(line, "NODAL COORDINATES"):
			err = readGambitNodes(scanner, m, numnp, ndfcd)
		case strings.Contains(line, "ELEMENTS/CELLS"):
			err = readGambitCells(scanner, m, nelem)
			numCells = len(m.elements)
		case strings.Contains(line, "BOUNDARY CONDITIONS"):
			if bcIdx >= nbsets {
				err = fmt.Errorf("more boundary condition sets than the %d declared", nbsets)
				break
			}
			bcIdx++
			err = readGambitBC(scanner, m, bcIdx, numCells)
		}
		if err != nil {
			return nil, err
		}
	}
	if err = scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %v", err)
	}
	m.FormatVersion = "gambit"
	if err = m.finalize(); err != nil {
		return nil, err
	}
	return
}

func readGambitNodes(scanner *bufio.Scanner, m *Mesh, numnp, ndfcd int) error {
	for i := 0; i < numnp; i++ {
		if !scanner.Scan() {
			return fmt.Errorf("unexpected EOF reading nodes")
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) < 1+ndfcd {
			return fmt.Errorf("invalid node line: %s", scanner.Text())
		}
		nodeID, err := strconv.Atoi(fields[0])
		if err != nil {
			return fmt.Errorf("invalid node ID: %s", fields[0])
		}
		coords := make([]float64, ndfcd)
		for d := range coords {
			if coords[d], err = strconv.ParseFloat(fields[1+d], 64); err != nil {
				return fmt.Errorf("invalid coordinate %q", fields[1+d])
			}
		}
		m.AddNode(nodeID, coords)
	}
	return nil
}

func readGambitCells(scanner *bufio.Scanner, m *Mesh, nelem int) error {
	for i := 0; i < nelem; i++ {
		if !scanner.Scan() {
			return fmt.Errorf("unexpected EOF reading elements")
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			return fmt.Errorf("invalid element line: %s", scanner.Text())
		}
		gambitType, _ := strconv.Atoi(fields[1])
		numNodes, _ := strconv.Atoi(fields[2])

		// Map Gambit element types to our types
		var etype ElementType
		switch gambitType {
		case 1:
			etype = Line
		case 2:
			etype = Quad
		case 3:
			etype = Triangle
		case 4:
			etype = Hex
		case 5:
			etype = Prism
		case 6:
			etype = Tet
		case 7:
			etype = Pyramid
		default:
			return fmt.Errorf("unsupported Gambit element type %d", gambitType)
		}
		// Long node lists continue on the next line
		for len(fields) < 3+numNodes {
			if !scanner.Scan() {
				return fmt.Errorf("unexpected EOF reading element nodes")
			}
			fields = append(fields, strings.Fields(scanner.Text())...)
		}
		nodeIDs := make([]int, numNodes)
		for j := range nodeIDs {
			nodeIDs[j], _ = strconv.Atoi(fields[3+j])
		}
		if err := m.AddElement(etype, []int{0}, nodeIDs); err != nil {
			return err
		}
	}
	return nil
}

// readGambitBC reads one boundary condition set of element/face records
func readGambitBC(scanner *bufio.Scanner, m *Mesh, marker, numCells int) error {
	if !scanner.Scan() {
		return fmt.Errorf("unexpected EOF in boundary conditions")
	}
	// Format: NAME ITYPE NENTRY NVALUES IBCODE1 ...
	parts := strings.Fields(scanner.Text())
	if len(parts) < 4 {
		return fmt.Errorf("invalid boundary condition header: %s", scanner.Text())
	}
	bcName := parts[0]
	itype, _ := strconv.Atoi(parts[1])
	nentry, _ := strconv.Atoi(parts[2])
	m.PhysicalNames[marker] = bcName

	for i := 0; i < nentry; i++ {
		if !scanner.Scan() {
			return fmt.Errorf("unexpected EOF reading boundary set %s", bcName)
		}
		if itype != 1 {
			// Nodal boundary conditions carry no facets
			continue
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			return fmt.Errorf("invalid boundary record: %s", scanner.Text())
		}
		elemID, _ := strconv.Atoi(fields[0])
		faceID, _ := strconv.Atoi(fields[2])
		elemIdx := elemID - 1
		if elemIdx < 0 || elemIdx >= numCells {
			return fmt.Errorf("boundary set %s: element %d out of range", bcName, elemID)
		}
		parent := m.elements[elemIdx]
		faceVerts := GetElementFaces(parent.etype, parent.nodes)
		if faceID < 1 || faceID > len(faceVerts) {
			return fmt.Errorf("boundary set %s: face %d out of range", bcName, faceID)
		}
		m.elements = append(m.elements, rawElement{
			etype: SimplexType(parent.etype.Dimension() - 1),
			tags:  []int{marker},
			nodes: faceVerts[faceID-1], // Face IDs are 1-based
		})
	}
	return nil
}
