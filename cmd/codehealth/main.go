// Command codehealth scores the health of JavaScript and TypeScript codebases.
package main

import (
	"github.com/huangsam/codehealth/cmd"
	"github.com/huangsam/codehealth/internal/contract"
	"github.com/huangsam/codehealth/internal/iocache"
)

func main() {
	cmd.SetStoreManager(iocache.Manager)

	err := cmd.Execute()
	if stopErr := cmd.StopProfiling(); stopErr != nil {
		contract.LogWarn("Failed to stop profiling", stopErr)
	}
	iocache.CloseStores()

	if err != nil {
		contract.LogFatal("Command failed", err)
	}
}
