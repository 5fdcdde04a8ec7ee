package main

import "github.com/brogergvhs/mangasrc/cmd"

func main() {
	cmd.Execute()
}
