package main

import "github.com/fakeyudi/worktimer/cmd"

func main() {
	cmd.Execute()
}
