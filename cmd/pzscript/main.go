package main

import "pzscript/internal/cli"

func main() {
	cli.Execute()
}
