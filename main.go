package main

import "github.com/dt-pm-tools/jiramd/cmd"

func main() {
	cmd.Execute()
}
