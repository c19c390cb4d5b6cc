package main

import (
	"os"

	"github.com/jonesrussell/north-cloud/bbs-poster/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
