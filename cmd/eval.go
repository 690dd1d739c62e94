/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"io/ioutil"
	"math"

	"github.com/spf13/cobra"

	"github.com/notargets/fembem/InputParameters"
	"github.com/notargets/fembem/conversion"
	"github.com/notargets/fembem/device"
	"github.com/notargets/fembem/fespace"
	"github.com/notargets/fembem/layerpot"
	"github.com/notargets/fembem/mesh"
	"github.com/notargets/fembem/study"
)

const exampleRunFile = `
########################################
Title: "Boundary evaluation"
MeshFile: meshes/square.msh
Family: CG          # or DG
Degree: 2
Selection: full     # full, near or on, with BoundaryID
Targets: [1, 3]     # leave out to evaluate at every node
Operator: scale     # identity, scale, sum or mean
Args:
  alpha: 2.
########################################
`

// EvalCmd represents the eval command
var EvalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate a builtin operator on an interpolated density",
	Long: `Reads a YAML run file, interpolates a density on the finite element space,
evaluates the operator in the target layout and writes the results back to
the out space nodes.`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		runFile, _ := cmd.Flags().GetString("inputFile")
		if len(runFile) == 0 {
			fmt.Printf("Example File:%s\n", exampleRunFile)
			return fmt.Errorf("must supply a run parameters file (-I, --inputFile)")
		}
		var data []byte
		if data, err = ioutil.ReadFile(runFile); err != nil {
			return
		}
		rp := &InputParameters.RunParameters{}
		if err = rp.Parse(data); err != nil {
			return
		}
		var q device.Queue
		if rp.Device != "" {
			q, err = device.New(rp.Device)
		} else {
			q, err = openQueue()
		}
		if err != nil {
			return
		}
		defer q.Free()
		_, err = RunEval(cmd.Context(), rp, q)
		return
	},
}

// RunEval evaluates the operator of rp and returns the out space function
func RunEval(ctx context.Context, rp *InputParameters.RunParameters, q device.Queue) (res *fespace.Function, err error) {
	rp.SetDefaults()
	if err = rp.Validate(); err != nil {
		return
	}
	rp.Print()
	var (
		m      *mesh.Mesh
		family fespace.Family
		sel    conversion.Selection
		fs     *fespace.FunctionSpace
		op     layerpot.Operator
		oc     *layerpot.OpConnection
	)
	if m, err = mesh.ReadMeshFile(rp.MeshFile); err != nil {
		return
	}
	if family, err = fespace.ParseFamily(rp.Family); err != nil {
		return
	}
	if sel, err = conversion.ParseSelection(rp.Selection, rp.BoundaryID); err != nil {
		return
	}
	if fs, err = fespace.New(m, family, rp.Degree, rp.ValueDim); err != nil {
		return
	}
	if op, err = layerpot.Lookup(rp.Operator); err != nil {
		return
	}
	fc := conversion.NewFunctionConverter()
	var targets []int
	if len(rp.Targets) != 0 {
		targets = rp.Targets
	}
	if oc, err = layerpot.NewOpConnection(fc, op, fs, sel, fs, targets); err != nil {
		return
	}
	sigma := fespace.NewFunction(fs)
	if err = sigma.Interpolate(func(x []float64) (v []float64) {
		for i := 0; i < fs.ValueDim; i++ {
			v = append(v, study.TrueSolution(x)[0])
		}
		return
	}); err != nil {
		return
	}
	opArgs := map[string]interface{}{layerpot.Density: sigma}
	for name, val := range rp.Args {
		opArgs[name] = val
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if res, err = oc.Evaluate(ctx, q, nil, opArgs); err != nil {
		return
	}
	vals := res.Values()
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range vals {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	written := fs.NumNodes()
	if idx := oc.TargetIndices(); idx != nil {
		written = len(idx)
	}
	fmt.Printf("%s evaluated at %d points, wrote %d of %d nodes on %s, values in [%g, %g]\n",
		rp.Operator, oc.Target.NumPoints(), written, fs.NumNodes(), q.Mode(), lo, hi)
	return
}

func init() {
	rootCmd.AddCommand(EvalCmd)
	EvalCmd.Flags().StringP("inputFile", "I", "", "YAML file of run parameters")
}
