package main

import (
	"os"

	"github.com/hashicorp-forge/aps-automation/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}
