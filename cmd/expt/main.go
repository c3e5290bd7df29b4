package main

import "github.com/ogulcanaydogan/expense-tracker/internal/cli"

func main() {
	cli.Execute()
}
