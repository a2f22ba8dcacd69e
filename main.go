package main

import (
	"github.com/manifest-network/feescope/cmd/feescope"
)

func main() {
	feescope.Execute()
}
