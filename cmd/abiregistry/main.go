package main

import "github.com/vietddude/abiregistry/internal/cli"

func main() {
	cli.Execute()
}
