// Package main is the entry point for the cozewf CLI application.
package main

import (
	"github.com/joelfokou/cozewf/cmd"
)

func main() {
	cmd.Execute()
}
