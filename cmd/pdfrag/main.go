package main

import (
	"os"

	"github.com/josinaldojr/pdfrag/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
