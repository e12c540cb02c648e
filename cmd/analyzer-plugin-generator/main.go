package main

import "analyzer-plugin-generator/internal/cli"

func main() {
	cli.Execute()
}
