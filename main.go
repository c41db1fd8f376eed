package main

import (
	"os"

	"github.com/kyleking/asksql/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
