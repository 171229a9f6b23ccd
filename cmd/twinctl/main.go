// Command twinctl runs and inspects a digital twin.
//
// Usage:
//
//	twinctl [flags] <command> [args]
//
// Commands:
//
//	chat            - interactive session against a local twin
//	serve           - gRPC service plus a Prometheus /metrics endpoint
//	inspect         - list or show persisted twin versions
//	replay          - run a replay fixture and report mismatches
//	export          - turn the interaction log into a replay fixture
//	default-config  - print the built-in twin configuration
package main

import (
	"fmt"
	"os"

	"github.com/danielpatrickdp/digital-twin/cmd/twinctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
