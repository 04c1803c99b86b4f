package main

import (
	"os"

	"github.com/lateeflat25-prog/9jabukabackend/internal/cli"
)

var version = "dev"

func main() {
	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}
