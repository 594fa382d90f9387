// The main package for the newsreduce executable.
package main

import (
	"github.com/JakeFAU/newsreduce/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
