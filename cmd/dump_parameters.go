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
	"os"
	"time"

	"github.com/ghodss/yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notargets/gofault/InputParameters"
)

// DumpCmd represents the dump-parameters command
var DumpCmd = &cobra.Command{
	Use:   "dump-parameters",
	Short: "Write the configuration and problem parameters in effect as YAML",
	Long: `Writes the application version, the settings read from the config file,
environment and flags, and, when an input file is given, the problem
parameters after defaults have been applied.`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			err error
			w   io.Writer = os.Stdout
		)
		icFile, _ := cmd.Flags().GetString("inputConditionsFile")
		outFile, _ := cmd.Flags().GetString("output")
		if len(outFile) != 0 {
			var f *os.File
			if f, err = os.Create(outFile); err != nil {
				fmt.Printf("error: %s\n", err.Error())
				os.Exit(1)
			}
			defer f.Close()
			w = f
		}
		if err = DumpParameters(w, icFile); err != nil {
			fmt.Printf("error: %s\n", err.Error())
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(DumpCmd)
	DumpCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML problem file to include")
	DumpCmd.Flags().StringP("output", "o", "", "file to write, standard output when empty")
}

type parameterDump struct {
	Application map[string]string                  `json:"application"`
	Settings    map[string]interface{}             `json:"settings"`
	Problem     *InputParameters.ProblemParameters `json:"problem,omitempty"`
}

func DumpParameters(w io.Writer, icFile string) (err error) {
	var (
		data []byte
		host string
		dump = parameterDump{Settings: viper.AllSettings()}
	)
	host, _ = os.Hostname()
	dump.Application = map[string]string{
		"name":     "gofault",
		"version":  Version,
		"hostname": host,
		"time":     time.Now().Format(time.RFC3339),
	}
	if len(icFile) != 0 {
		if dump.Problem, err = InputParameters.ReadProblem(icFile); err != nil {
			return
		}
	}
	if data, err = yaml.Marshal(dump); err != nil {
		return
	}
	_, err = w.Write(data)
	return
}
