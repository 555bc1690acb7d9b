package main

import "github.com/Mohsinsiddi/savingctl/cmd"

func main() {
	cmd.Execute()
}
