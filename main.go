package main

import "github.com/karolswdev/promptforge/cmd"

func main() {
	cmd.Execute()
}
