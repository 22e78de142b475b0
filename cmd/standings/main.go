package main

import "github.com/vietddude/standings/internal/cli"

func main() {
	cli.Execute()
}
