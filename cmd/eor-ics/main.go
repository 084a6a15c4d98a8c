package main

import "github.com/pfrederiksen/eor-ics/internal/cli"

func main() {
	cli.Execute()
}
