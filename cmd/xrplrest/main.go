package main

import "github.com/LeJamon/xrplrest/internal/cli"

func main() {
	cli.Execute()
}
