package main

import (
	"github.com/robotalks/swarmio/pkg/cli/sh"
	"github.com/robotalks/swarmio/pkg/l1/env"
)

//go-build: CGO_ENABLED=0

func init() {
	env.SetupFlags()
}

func main() {
	sh.Main()
}
