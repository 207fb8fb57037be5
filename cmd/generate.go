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
	"os"
	"sync"

	"github.com/mitchellh/go-homedir"
	"github.com/notargets/gomeshgen/InputParameters"
	"github.com/notargets/gomeshgen/generators"
	"github.com/notargets/gomeshgen/mesh"
	"github.com/notargets/gomeshgen/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type Generate struct {
	PipelineFile string
	Ranks        int
	Final        string
	Print        bool
}

const examplePipeline = `
########################################
Title: "Painted square"
Generators:
  - name: square
    type: GeneratedMeshGenerator
    params: {dim: 2, nx: 4, ny: 4}
  - name: walls
    type: SideSetsFromNormalsGenerator
    params:
      input: square
      normals: [[0, 1, 0]]
      new_boundary: lid
########################################
`

// GenerateCmd represents the generate command
var GenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run a generator pipeline read from a YAML file",
	Long: `Run a generator pipeline read from a YAML file. With more than one rank
every rank runs the pipeline on its own part of the mesh.`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		gen := &Generate{}
		if gen.PipelineFile, err = cmd.Flags().GetString("inputFile"); err != nil {
			return
		}
		if gen.Final, err = cmd.Flags().GetString("final"); err != nil {
			return
		}
		gen.Print, _ = cmd.Flags().GetBool("print")
		gen.Ranks = viper.GetInt("ranks")
		pp, err := processInput(gen)
		if err != nil {
			return
		}
		if gen.Print {
			pp.Print()
		}
		meshes, err := RunPipeline(context.Background(), pp, gen.Ranks)
		if err != nil {
			return
		}
		for _, m := range meshes {
			m.PrintStatistics()
		}
		return
	},
}

func processInput(gen *Generate) (pp *InputParameters.PipelineParameters, err error) {
	if len(gen.PipelineFile) == 0 {
		fmt.Printf("Example File:%s\n", examplePipeline)
		return nil, fmt.Errorf("must supply a pipeline file (-I, --inputFile) in YAML format")
	}
	file, err := homedir.Expand(gen.PipelineFile)
	if err != nil {
		return
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return
	}
	pp = &InputParameters.PipelineParameters{}
	if err = pp.Parse(data); err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	if gen.Final != "" {
		pp.Final = gen.Final
	}
	// The command line wins over the file
	if gen.Ranks > 0 {
		pp.Ranks = gen.Ranks
	}
	return
}

func init() {
	rootCmd.AddCommand(GenerateCmd)
	GenerateCmd.Flags().StringP("inputFile", "I", "", "YAML file describing the generator pipeline")
	GenerateCmd.Flags().StringP("final", "f", "", "name of the generator whose mesh is the result")
	GenerateCmd.Flags().IntP("ranks", "n", 0, "number of ranks to split the mesh over")
	GenerateCmd.Flags().BoolP("print", "p", false, "print the pipeline before running it")
	_ = viper.BindPFlag("ranks", GenerateCmd.Flags().Lookup("ranks"))
}

// RunPipeline builds and runs the pipeline on the requested number of ranks
// and returns the mesh of every rank
func RunPipeline(ctx context.Context, pp *InputParameters.PipelineParameters, ranks int) ([]*mesh.Mesh, error) {
	if ranks < 1 {
		ranks = max(pp.Ranks, 1)
	}
	var (
		mu     sync.Mutex
		meshes = make([]*mesh.Mesh, ranks)
	)
	err := utils.NewWorld(ranks).Run(ctx, func(ctx context.Context, c *utils.Comm) error {
		p := generators.NewPipeline(c)
		if err := p.Build(pp); err != nil {
			return err
		}
		m, err := p.Run(ctx)
		if err != nil {
			return err
		}
		mu.Lock()
		meshes[c.Rank()] = m
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return meshes, nil
}
