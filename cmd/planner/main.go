// Command planner is the terminal client for the silo planner: it keeps
// the commenter name and roadmap cache locally and talks to the planner API.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := run(newApp(os.Stdout, os.Stderr), os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
