package main

import (
	"github.com/anomalo/diagnostics/pkg/cli"
)

func main() {
	cli.Execute()
}
