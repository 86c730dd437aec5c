package main

import (
	"github.com/optivet/optivet/internal/cli"
)

func main() {
	cli.Execute()
}
