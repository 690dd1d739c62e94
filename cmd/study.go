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

	"github.com/spf13/cobra"

	"github.com/notargets/fembem/device"
	"github.com/notargets/fembem/fespace"
	"github.com/notargets/fembem/study"
)

type StudyOptions struct {
	MeshDir   string
	CacheFile string
	Degrees   []int
	Families  []string
	Methods   []string
	NoCache   bool
}

// StudyCmd represents the study command
var StudyCmd = &cobra.Command{
	Use:   "study",
	Short: "Run the conversion methods over a directory of refined meshes",
	Long: `Reads every .msh file of a directory, the mesh size taken from the file
name (e.g. msh0%125.msh has h = 0.125), and runs every method for every degree
and family. Results are kept in a YAML cache file and reused.`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		so := &StudyOptions{}
		fl := cmd.Flags()
		so.MeshDir, _ = fl.GetString("meshDir")
		so.CacheFile, _ = fl.GetString("cacheFile")
		so.Degrees, _ = fl.GetIntSlice("degrees")
		so.Families, _ = fl.GetStringSlice("families")
		so.Methods, _ = fl.GetStringSlice("methods")
		so.NoCache, _ = fl.GetBool("noCache")
		var q device.Queue
		if q, err = openQueue(); err != nil {
			return
		}
		defer q.Free()
		_, err = RunStudy(cmd.Context(), so, q)
		return
	},
}

func RunStudy(ctx context.Context, so *StudyOptions, q device.Queue) (rows []study.Row, err error) {
	if len(so.MeshDir) == 0 {
		return nil, fmt.Errorf("must supply a mesh directory (-D, --meshDir)")
	}
	cfg := study.Config{
		Degrees:  so.Degrees,
		Methods:  so.Methods,
		UseCache: !so.NoCache,
	}
	for _, name := range so.Families {
		var f fespace.Family
		if f, err = fespace.ParseFamily(name); err != nil {
			return
		}
		cfg.Families = append(cfg.Families, f)
	}
	fmt.Println("Reading Meshes...")
	var meshes []study.MeshFile
	if meshes, err = study.ScanMeshDir(so.MeshDir); err != nil {
		return
	}
	fmt.Printf("%d Meshes Read in.\n", len(meshes))
	var cache *study.Cache
	if cache, err = study.LoadCache(so.CacheFile); err != nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	rows, err = study.Run(ctx, q, meshes, cfg, cache, func(iter, total int, row study.Row) {
		fmt.Printf("iter %d / %d\n", iter, total)
		fmt.Printf("h: %g\n", row.H)
		fmt.Printf("ndofs: %d\n", row.NDofs)
		fmt.Printf("method: %s\n", row.Method)
		fmt.Printf("element: %s%d\n", row.Family, row.Degree)
		fmt.Printf("Relative Err: %g\n\n", row.RelErr)
	})
	if serr := cache.Save(); serr != nil && err == nil {
		err = serr
	}
	return
}

func init() {
	rootCmd.AddCommand(StudyCmd)
	StudyCmd.Flags().StringP("meshDir", "D", "", "directory of .msh files")
	StudyCmd.Flags().String("cacheFile", "accuracy_study.yaml", "YAML file of cached results")
	StudyCmd.Flags().IntSlice("degrees", []int{1}, "polynomial degrees")
	StudyCmd.Flags().StringSlice("families", []string{"CG", "DG"}, "element families")
	StudyCmd.Flags().StringSlice("methods", study.MethodNames(), "methods to run")
	StudyCmd.Flags().Bool("noCache", false, "recompute every trial")
}
