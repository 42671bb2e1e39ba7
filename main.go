package main

import "github.com/vedsharma/reqbook/cmd"

func main() {
	cmd.Execute()
}
