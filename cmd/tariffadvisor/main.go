// cmd/tariffadvisor/main.go
package main

import (
	cmd "github.com/mwiater/tariffadvisor/internal/cli"
)

// main delegates to the cobra root command.
func main() {
	cmd.Execute()
}
