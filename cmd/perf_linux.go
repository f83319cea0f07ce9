//go:build linux

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
	"log"

	perf "github.com/hodgesds/perf-utils"
)

// countInstructions runs fn under a hardware instruction counter. When the
// counter can not be opened fn runs uncounted.
func countInstructions(fn func() error) (err error) {
	var (
		ran    bool
		runErr error
		pv     *perf.ProfileValue
	)
	pv, err = perf.CPUInstructions(func() error {
		ran = true
		runErr = fn()
		return runErr
	})
	if !ran {
		log.Printf("perf counters unavailable: %v\n", err)
		return fn()
	}
	if runErr != nil {
		return runErr
	}
	if err != nil {
		return
	}
	fmt.Printf("%d CPU instructions (enabled %d ns, running %d ns)\n",
		pv.Value, pv.TimeEnabled, pv.TimeRunning)
	return
}
