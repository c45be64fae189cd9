package main

import "github.com/lotoarchive/zabava-archive/internal/cli"

func main() {
	cli.Execute()
}
