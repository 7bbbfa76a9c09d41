package main

import "github.com/tansive/jiraclient/internal/cli"

func main() {
	cli.Execute()
}
