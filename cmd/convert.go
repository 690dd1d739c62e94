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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/notargets/fembem/conversion"
	"github.com/notargets/fembem/device"
	"github.com/notargets/fembem/fespace"
	"github.com/notargets/fembem/graphics"
	"github.com/notargets/fembem/mesh"
	"github.com/notargets/fembem/study"
	"github.com/notargets/fembem/utils"
)

type ConvertOptions struct {
	MeshFile   string
	Family     string
	Degree     int
	ValueDim   int
	Selection  string
	BoundaryID int
	PrintPerm  bool
	Plot       bool
}

// ConvertCmd represents the convert command
var ConvertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Build the node reordering of a function space and check it round trips",
	Long: `Reads a mesh, builds the finite element space and its converter to the
target layout, prints the node and cell counts and converts an interpolated
function to the target layout and back.`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		co := &ConvertOptions{}
		fl := cmd.Flags()
		co.MeshFile, _ = fl.GetString("meshFile")
		co.Family, _ = fl.GetString("family")
		co.Degree, _ = fl.GetInt("degree")
		co.ValueDim, _ = fl.GetInt("dim")
		co.Selection, _ = fl.GetString("selection")
		co.BoundaryID, _ = fl.GetInt("boundary")
		co.PrintPerm, _ = fl.GetBool("printPerm")
		co.Plot, _ = fl.GetBool("plot")
		var q device.Queue
		if q, err = openQueue(); err != nil {
			return
		}
		defer q.Free()
		var sc *conversion.SpaceConverter
		if sc, err = RunConvert(co, q); err != nil {
			return
		}
		if co.Plot {
			if _, err = graphics.PlotMesh(sc.Space.Mesh, sc.Discretization()); err != nil {
				return
			}
			select {}
		}
		return
	},
}

// RunConvert builds the converter described by co and checks a round trip
// through q
func RunConvert(co *ConvertOptions, q device.Queue) (sc *conversion.SpaceConverter, err error) {
	if len(co.MeshFile) == 0 {
		return nil, fmt.Errorf("must supply a mesh file (-F, --meshFile) in Gmsh (.msh) or Gambit (.neu) format")
	}
	var (
		m      *mesh.Mesh
		family fespace.Family
		sel    conversion.Selection
		fs     *fespace.FunctionSpace
	)
	if m, err = mesh.ReadMeshFile(co.MeshFile); err != nil {
		return
	}
	m.PrintStatistics()
	if family, err = fespace.ParseFamily(co.Family); err != nil {
		return
	}
	if sel, err = conversion.ParseSelection(co.Selection, co.BoundaryID); err != nil {
		return
	}
	if fs, err = fespace.New(m, family, co.Degree, co.ValueDim); err != nil {
		return
	}
	fc := conversion.NewFunctionConverter()
	if sc, err = fc.Converter(fs, sel); err != nil {
		return
	}
	d := sc.Discretization()
	var flipped int
	for _, f := range d.Flipped {
		if f {
			flipped++
		}
	}
	fmt.Printf("%v, selection %v\n", fs, sel)
	fmt.Printf("  Source nodes: %d\n", sc.NumSourceNodes())
	fmt.Printf("  Target nodes: %d (%d cells, %d flipped)\n", sc.NumTargetNodes(), d.NumCells(), flipped)
	if co.PrintPerm {
		for _, dir := range []conversion.Direction{conversion.SourceToTarget, conversion.TargetToSource} {
			p, perr := sc.Permutation(dir)
			if perr != nil {
				return nil, perr
			}
			fmt.Printf("  %v: %v\n", dir, p)
		}
	}

	f := fespace.NewFunction(fs)
	if err = f.Interpolate(func(x []float64) (v []float64) {
		s := study.TrueSolution(x)[0]
		for i := 0; i < fs.ValueDim; i++ {
			v = append(v, s*float64(i+1))
		}
		return
	}); err != nil {
		return
	}
	var a device.Array
	if a, err = fc.ToTarget(q, f, sel, true); err != nil {
		return
	}
	g := fespace.NewFunction(fs)
	if err = fc.FromTarget(q, a, g, sel); err != nil {
		return
	}
	if sel.Kind == conversion.Full {
		var relErr float64
		if relErr, err = study.RelativeError(f, g); err != nil {
			return
		}
		fmt.Printf("  Round trip relative error on %s: %g\n", q.Mode(), relErr)
	}
	sc.ReleaseTable()
	utils.Log().Debugw("converted", "memory", utils.GetMemUsage())
	return
}

func init() {
	rootCmd.AddCommand(ConvertCmd)
	ConvertCmd.Flags().StringP("meshFile", "F", "", "mesh file to read in Gmsh (.msh) or Gambit (.neu) format")
	ConvertCmd.Flags().StringP("family", "f", "CG", "element family, CG or DG")
	ConvertCmd.Flags().IntP("degree", "d", 1, "polynomial degree")
	ConvertCmd.Flags().Int("dim", 1, "number of value components")
	ConvertCmd.Flags().StringP("selection", "s", "full", "part of the mesh to convert: full, near or on")
	ConvertCmd.Flags().IntP("boundary", "b", 0, "boundary id of a near or on selection")
	ConvertCmd.Flags().Bool("printPerm", false, "print both reordering arrays")
	ConvertCmd.Flags().BoolP("plot", "g", false, "plot the mesh and target nodes of a planar triangle mesh")
}
