package main

import "github.com/LeJamon/goOCR2/internal/cli"

func main() {
	cli.Execute()
}
