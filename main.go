// Entrypoint for the Cobra CLI; delegates to the root command in cmd/root.go.

package main

import (
	"github.com/npucs/npucs/cmd"
)

func main() {
	cmd.Execute()
}
