package main

import (
	"os"

	"github.com/mickamy/activerecord/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
