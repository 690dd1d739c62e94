package InputParameters

import (
	"fmt"
	"sort"

	"github.com/ghodss/yaml"
	"github.com/hashicorp/go-multierror"

	"github.com/notargets/fembem/conversion"
	"github.com/notargets/fembem/fespace"
	"github.com/notargets/fembem/layerpot"
)

// Parameters obtained from the YAML run file
type RunParameters struct {
	Title      string             `json:"Title"`
	MeshFile   string             `json:"MeshFile"`
	Family     string             `json:"Family"`
	Degree     int                `json:"Degree"`
	ValueDim   int                `json:"ValueDim"`
	Selection  string             `json:"Selection"` // full, near or on
	BoundaryID int                `json:"BoundaryID"`
	Targets    []int              `json:"Targets"` // boundary ids of the evaluation points, all nodes when empty
	Operator   string             `json:"Operator"`
	Args       map[string]float64 `json:"Args"`
	Device     string             `json:"Device"`
}

func (rp *RunParameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, rp)
}

// SetDefaults fills in the values a run file may leave out
func (rp *RunParameters) SetDefaults() {
	if rp.Family == "" {
		rp.Family = "CG"
	}
	if rp.Degree == 0 {
		rp.Degree = 1
	}
	if rp.ValueDim == 0 {
		rp.ValueDim = 1
	}
	if rp.Selection == "" {
		rp.Selection = "full"
	}
	if rp.Operator == "" {
		rp.Operator = "identity"
	}
	if rp.Device == "" {
		rp.Device = "host"
	}
}

// Validate reports every bad parameter at once
func (rp *RunParameters) Validate() (err error) {
	if rp.MeshFile == "" {
		err = multierror.Append(err, fmt.Errorf("MeshFile is required"))
	}
	if _, ferr := fespace.ParseFamily(rp.Family); ferr != nil {
		err = multierror.Append(err, ferr)
	}
	if rp.Degree < 1 {
		err = multierror.Append(err, fmt.Errorf("Degree must be positive, got %d", rp.Degree))
	}
	if rp.ValueDim < 1 {
		err = multierror.Append(err, fmt.Errorf("ValueDim must be positive, got %d", rp.ValueDim))
	}
	if _, serr := conversion.ParseSelection(rp.Selection, rp.BoundaryID); serr != nil {
		err = multierror.Append(err, serr)
	}
	if _, oerr := layerpot.Lookup(rp.Operator); oerr != nil {
		err = multierror.Append(err, oerr)
	}
	return
}

func (rp *RunParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", rp.Title)
	fmt.Printf("[%s]\t\t= Mesh File\n", rp.MeshFile)
	fmt.Printf("[%s%d]\t\t\t= Element, %d components\n", rp.Family, rp.Degree, rp.ValueDim)
	fmt.Printf("[%s %d]\t\t= Source Selection\n", rp.Selection, rp.BoundaryID)
	fmt.Printf("%v\t\t\t= Targets\n", rp.Targets)
	fmt.Printf("[%s]\t\t= Operator\n", rp.Operator)
	fmt.Printf("[%s]\t\t\t= Device\n", rp.Device)
	keys := make([]string, 0, len(rp.Args))
	for k := range rp.Args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("Args[%s] = %v\n", key, rp.Args[key])
	}
}
