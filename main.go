package main

import "github.com/agentic-research/pbgen/cmd"

func main() {
	cmd.Execute()
}
