package main

import (
	"os"

	"github.com/rovshanmuradov/candy-minter/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
