package main

import "github.com/tklauser/apalis-tools/cmd"

func main() {
	cmd.Execute()
}
