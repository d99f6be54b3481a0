// The main package for the stac-harvester executable.
package main

import "github.com/geoharvest/stac-harvester/cmd"

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
