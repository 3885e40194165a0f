package main

import (
	"os"

	"sqldesk/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
