package mesh

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// gmshTypes maps the Gmsh element type number to our type and node count.
// High order types keep their corner vertices only.
var gmshTypes = map[int]struct {
	etype    ElementType
	numNodes int
}{
	1:  {Line, 2},
	2:  {Triangle, 3},
	3:  {Quad, 4},
	4:  {Tet, 4},
	5:  {Hex, 8},
	6:  {Prism, 6},
	7:  {Pyramid, 5},
	8:  {Line, 3},
	9:  {Triangle, 6},
	11: {Tet, 10},
	15: {Point, 1},
	21: {Triangle, 10},
	26: {Line, 4},
	29: {Tet, 20},
}

// ReadMeshFile reads a mesh file based on extension
func ReadMeshFile(filename string) (*Mesh, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".neu":
		return ReadGambitNeutral(filename)
	case ".msh":
		return ReadGmshAuto(filename)
	default:
		return nil, fmt.Errorf("unsupported mesh format: %s", ext)
	}
}

// ReadGmshAuto detects the Gmsh format version and reads the file
func ReadGmshAuto(filename string) (m *Mesh, err error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	if m, err = ReadGmsh(file); err != nil {
		return nil, errors.Wrapf(err, "reading %s", filename)
	}
	return
}

// ReadGmsh reads an ASCII Gmsh MSH file of version 2.2 or 4.1
func ReadGmsh(r io.Reader) (m *Mesh, err error) {
	scanner := bufio.NewScanner(r)
	m = NewMesh()
	entities := make(map[[2]int]int) // (dim, entity tag) -> physical tag

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case "$MeshFormat":
			err = readMeshFormat(scanner, m)
		case "$PhysicalNames":
			err = readPhysicalNames(scanner, m)
		case "$Entities":
			err = readEntities4(scanner, entities)
		case "$Nodes":
			if m.isVersion4() {
				err = readNodes4(scanner, m)
			} else {
				err = readNodes22(scanner, m)
			}
		case "$Elements":
			if m.isVersion4() {
				err = readElements4(scanner, m, entities)
			} else {
				err = readElements22(scanner, m)
			}
		default:
			if strings.HasPrefix(line, "$") && !strings.HasPrefix(line, "$End") {
				err = skipSection(scanner, "$End"+line[1:])
			}
		}
		if err != nil {
			return nil, err
		}
	}
	if err = scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanner error: %v", err)
	}
	if m.FormatVersion == "" {
		return nil, fmt.Errorf("could not find $MeshFormat section")
	}
	if err = m.finalize(); err != nil {
		return nil, err
	}
	return
}

func (m *Mesh) isVersion4() bool { return strings.HasPrefix(m.FormatVersion, "4.") }

func readMeshFormat(scanner *bufio.Scanner, m *Mesh) error {
	if !scanner.Scan() {
		return fmt.Errorf("unexpected EOF in MeshFormat")
	}
	parts := strings.Fields(scanner.Text())
	if len(parts) < 3 {
		return fmt.Errorf("invalid MeshFormat line")
	}
	m.FormatVersion = parts[0]
	if !strings.HasPrefix(m.FormatVersion, "2.") && !m.isVersion4() {
		return fmt.Errorf("unsupported Gmsh format version: %s", m.FormatVersion)
	}
	if parts[1] != "0" {
		return fmt.Errorf("binary Gmsh files are not supported")
	}
	return skipSection(scanner, "$EndMeshFormat")
}

// readPhysicalNames reads physical group names (common to v2.2 and v4)
func readPhysicalNames(scanner *bufio.Scanner, m *Mesh) error {
	if !scanner.Scan() {
		return fmt.Errorf("unexpected EOF in PhysicalNames")
	}
	numNames, _ := strconv.Atoi(strings.TrimSpace(scanner.Text()))
	for i := 0; i < numNames; i++ {
		if !scanner.Scan() {
			return fmt.Errorf("unexpected EOF reading physical names")
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) >= 3 {
			tag, _ := strconv.Atoi(parts[1])
			name := strings.Trim(strings.Join(parts[2:], " "), "\"")
			m.PhysicalNames[tag] = name
		}
	}
	return skipSection(scanner, "$EndPhysicalNames")
}

// readEntities4 keeps the first physical tag of every curve, surface and volume
func readEntities4(scanner *bufio.Scanner, entities map[[2]int]int) error {
	if !scanner.Scan() {
		return fmt.Errorf("unexpected EOF in Entities")
	}
	counts := strings.Fields(scanner.Text())
	if len(counts) < 4 {
		return fmt.Errorf("invalid entity counts")
	}
	for dim := 0; dim < 4; dim++ {
		n, _ := strconv.Atoi(counts[dim])
		// Points carry one coordinate triple, the others a bounding box
		physAt := 7
		if dim == 0 {
			physAt = 4
		}
		for i := 0; i < n; i++ {
			if !scanner.Scan() {
				return fmt.Errorf("unexpected EOF reading entity of dimension %d", dim)
			}
			fields := strings.Fields(scanner.Text())
			if len(fields) <= physAt {
				return fmt.Errorf("invalid entity line %q", scanner.Text())
			}
			tag, _ := strconv.Atoi(fields[0])
			numPhys, _ := strconv.Atoi(fields[physAt])
			if numPhys > 0 && len(fields) > physAt+1 {
				phys, _ := strconv.Atoi(fields[physAt+1])
				entities[[2]int{dim, tag}] = phys
			}
		}
	}
	return skipSection(scanner, "$EndEntities")
}

func parseCoords(fields []string) (coords []float64, err error) {
	coords = make([]float64, 3)
	for i := 0; i < 3; i++ {
		if coords[i], err = strconv.ParseFloat(fields[i], 64); err != nil {
			return nil, fmt.Errorf("invalid coordinate %q", fields[i])
		}
	}
	return
}

// readNodes22 reads nodes in v2.2 format
func readNodes22(scanner *bufio.Scanner, m *Mesh) error {
	if !scanner.Scan() {
		return fmt.Errorf("unexpected EOF in Nodes")
	}
	numNodes, _ := strconv.Atoi(strings.TrimSpace(scanner.Text()))
	m.Vertices = make([][]float64, 0, numNodes)
	for i := 0; i < numNodes; i++ {
		if !scanner.Scan() {
			return fmt.Errorf("unexpected EOF reading nodes")
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) < 4 {
			return fmt.Errorf("invalid node line: %s", scanner.Text())
		}
		nodeID, err := strconv.Atoi(parts[0])
		if err != nil {
			return fmt.Errorf("invalid node ID: %s", parts[0])
		}
		coords, err := parseCoords(parts[1:])
		if err != nil {
			return err
		}
		m.AddNode(nodeID, coords)
	}
	return skipSection(scanner, "$EndNodes")
}

// readNodes4 reads the entity blocks of the v4.1 Nodes section
func readNodes4(scanner *bufio.Scanner, m *Mesh) error {
	if !scanner.Scan() {
		return fmt.Errorf("unexpected EOF in Nodes")
	}
	header := strings.Fields(scanner.Text())
	if len(header) < 4 {
		return fmt.Errorf("invalid Nodes header")
	}
	numBlocks, _ := strconv.Atoi(header[0])
	for b := 0; b < numBlocks; b++ {
		if !scanner.Scan() {
			return fmt.Errorf("unexpected EOF reading node block")
		}
		block := strings.Fields(scanner.Text())
		if len(block) < 4 {
			return fmt.Errorf("invalid node block header: %s", scanner.Text())
		}
		numInBlock, _ := strconv.Atoi(block[3])
		tags := make([]int, numInBlock)
		for i := range tags {
			if !scanner.Scan() {
				return fmt.Errorf("unexpected EOF reading node tags")
			}
			tags[i], _ = strconv.Atoi(strings.TrimSpace(scanner.Text()))
		}
		for i := range tags {
			if !scanner.Scan() {
				return fmt.Errorf("unexpected EOF reading node coordinates")
			}
			parts := strings.Fields(scanner.Text())
			if len(parts) < 3 {
				return fmt.Errorf("invalid node coordinates: %s", scanner.Text())
			}
			coords, err := parseCoords(parts)
			if err != nil {
				return err
			}
			m.AddNode(tags[i], coords)
		}
	}
	return skipSection(scanner, "$EndNodes")
}

// readElements22 reads elements in v2.2 format, the first tag is the physical
// group
func readElements22(scanner *bufio.Scanner, m *Mesh) error {
	if !scanner.Scan() {
		return fmt.Errorf("unexpected EOF in Elements")
	}
	numElements, _ := strconv.Atoi(strings.TrimSpace(scanner.Text()))
	for i := 0; i < numElements; i++ {
		if !scanner.Scan() {
			return fmt.Errorf("unexpected EOF reading elements")
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) < 3 {
			return fmt.Errorf("invalid element line: %s", scanner.Text())
		}
		gmshType, _ := strconv.Atoi(parts[1])
		numTags, _ := strconv.Atoi(parts[2])
		info, ok := gmshTypes[gmshType]
		if !ok {
			return fmt.Errorf("unsupported Gmsh element type %d", gmshType)
		}
		if len(parts) < 3+numTags+info.numNodes {
			return fmt.Errorf("element line too short: %s", scanner.Text())
		}
		tags := make([]int, numTags)
		for j := range tags {
			tags[j], _ = strconv.Atoi(parts[3+j])
		}
		nodeIDs := make([]int, info.numNodes)
		for j := range nodeIDs {
			nodeIDs[j], _ = strconv.Atoi(parts[3+numTags+j])
		}
		if err := m.AddElement(info.etype, tags, nodeIDs); err != nil {
			return err
		}
	}
	return skipSection(scanner, "$EndElements")
}

// readElements4 reads the entity blocks of the v4.1 Elements section, the
// physical group comes from the owning entity
func readElements4(scanner *bufio.Scanner, m *Mesh, entities map[[2]int]int) error {
	if !scanner.Scan() {
		return fmt.Errorf("unexpected EOF in Elements")
	}
	header := strings.Fields(scanner.Text())
	if len(header) < 4 {
		return fmt.Errorf("invalid Elements header")
	}
	numBlocks, _ := strconv.Atoi(header[0])
	for b := 0; b < numBlocks; b++ {
		if !scanner.Scan() {
			return fmt.Errorf("unexpected EOF reading element block")
		}
		block := strings.Fields(scanner.Text())
		if len(block) < 4 {
			return fmt.Errorf("invalid element block header: %s", scanner.Text())
		}
		entityDim, _ := strconv.Atoi(block[0])
		entityTag, _ := strconv.Atoi(block[1])
		gmshType, _ := strconv.Atoi(block[2])
		numInBlock, _ := strconv.Atoi(block[3])
		info, ok := gmshTypes[gmshType]
		if !ok {
			return fmt.Errorf("unsupported Gmsh element type %d", gmshType)
		}
		var tags []int
		if phys, ok := entities[[2]int{entityDim, entityTag}]; ok {
			tags = []int{phys, entityTag}
		}
		for i := 0; i < numInBlock; i++ {
			if !scanner.Scan() {
				return fmt.Errorf("unexpected EOF reading elements")
			}
			parts := strings.Fields(scanner.Text())
			if len(parts) < 1+info.numNodes {
				return fmt.Errorf("element line too short: %s", scanner.Text())
			}
			nodeIDs := make([]int, info.numNodes)
			for j := range nodeIDs {
				nodeIDs[j], _ = strconv.Atoi(parts[1+j])
			}
			if err := m.AddElement(info.etype, tags, nodeIDs); err != nil {
				return err
			}
		}
	}
	return skipSection(scanner, "$EndElements")
}

func skipSection(scanner *bufio.Scanner, endMarker string) error {
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) == endMarker {
			return nil
		}
	}
	return fmt.Errorf("missing %s", endMarker)
}
