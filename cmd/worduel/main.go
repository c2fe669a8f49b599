package main

import "github.com/mcoot/worduel/internal/cli"

func main() {
	cli.Execute()
}
