// Command ecibridge loads models of bridge blocks, prints their ECI tables,
// and runs them.
package main

import "github.com/sarchlab/ecibridge/ecibridge/cmd"

func main() {
	cmd.Execute()
}
