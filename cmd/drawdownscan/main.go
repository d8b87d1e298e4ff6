package main

import "drawdown-scan/internal/cli"

func main() {
	cli.Execute()
}
