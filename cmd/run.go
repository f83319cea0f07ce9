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
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/notargets/gofault/InputParameters"
	"github.com/notargets/gofault/output"
	"github.com/notargets/gofault/output/plot"
	"github.com/notargets/gofault/problems"
	"github.com/notargets/gofault/utils"
)

type RunOptions struct {
	ICFile  string
	Graph   bool
	Profile bool
	Perf    bool
	Verbose bool
}

// RunCmd represents the run command
var RunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a fault problem described by a YAML input file",
	Long: `Reads the problem file, builds materials, boundary conditions and faults
on the mesh it names and time steps the problem to its end time.`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			err error
		)
		ro := &RunOptions{}
		if ro.ICFile, err = cmd.Flags().GetString("inputConditionsFile"); err != nil {
			panic(err)
		}
		ro.Graph, _ = cmd.Flags().GetBool("graph")
		ro.Profile, _ = cmd.Flags().GetBool("profile")
		ro.Perf, _ = cmd.Flags().GetBool("perf")
		ro.Verbose, _ = cmd.Flags().GetBool("verbose")
		if len(ro.ICFile) == 0 {
			err = fmt.Errorf("must supply an input parameters file (-I, --inputConditionsFile) in YAML format")
			fmt.Printf("error: %s\n", err.Error())
			fmt.Printf("Example File:%s\n", InputParameters.ExampleFile)
			os.Exit(1)
		}
		if ro.Profile {
			defer profile.Start(profile.ProfilePath(".")).Stop()
		}
		if err = RunProblem(ro); err != nil {
			fmt.Printf("error: %s\n", err.Error())
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(RunCmd)
	RunCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file describing the problem: mesh, materials, boundary conditions and faults")
	RunCmd.Flags().BoolP("graph", "g", false, "display the fault slip while computing solution")
	RunCmd.Flags().Bool("profile", false, "write a CPU profile to the current directory")
	RunCmd.Flags().Bool("perf", false, "count CPU instructions used by the time stepping (Linux only)")
	RunCmd.Flags().BoolP("verbose", "v", false, "print mesh reading details")
}

/*
RunProblem reads the problem file, attaches the fault output and plotting
observers and runs the problem. Mesh, database and output file names are
relative to the directory of the problem file.
*/
func RunProblem(ro *RunOptions) (err error) {
	var (
		ip   *InputParameters.ProblemParameters
		dir  = filepath.Dir(ro.ICFile)
		p    *problems.Problem
		open []io.Closer
	)
	if ip, err = InputParameters.ReadProblem(ro.ICFile); err != nil {
		return
	}
	ip.Print()
	mesh, err := problems.ReadMesh(relative(dir, ip.MeshFile), ro.Verbose)
	if err != nil {
		return
	}
	if p, err = problems.NewProblemFromParameters(ip, mesh, dir); err != nil {
		return
	}
	defer func() {
		for _, c := range open {
			c.Close()
		}
	}()
	for _, fp := range ip.Faults {
		if len(fp.OutputFile) == 0 {
			continue
		}
		var f *os.File
		if f, err = os.Create(relative(dir, fp.OutputFile)); err != nil {
			return
		}
		open = append(open, f)
		fw := output.NewFaultWriter(f, fp.Label)
		fw.EverySteps = fp.OutputEverySteps
		p.Observers.Register(fw)
	}
	if ro.Graph && len(ip.Faults) != 0 {
		p.Observers.Register(plot.NewSlipChart(ip.Faults[0].Label))
	}
	if err = p.Initialize(); err != nil {
		return
	}
	start := time.Now()
	if ro.Perf {
		err = countInstructions(p.Run)
	} else {
		err = p.Run()
	}
	if err != nil {
		return
	}
	log.Printf("%s: %d steps in %v, Newton iterations %v\n",
		p.Title, len(p.Iterations), time.Since(start), p.Iterations)
	log.Println(utils.GetMemUsage())
	return
}

func relative(dir, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}
