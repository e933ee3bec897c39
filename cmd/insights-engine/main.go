// Command insights-engine runs the fee insights streaming analytics core.
package main

import "github.com/nottherealalanturing/stellar-fee-tracker/cmd/insights-engine/cmd"

func main() {
	cmd.Execute()
}
