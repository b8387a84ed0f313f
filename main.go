package main

import "jiraflow/internal/cli"

func main() {
	cli.Execute()
}
