package main

import "github.com/rustyeddy/tradeinsights/internal/cli"

func main() {
	cli.Execute()
}
