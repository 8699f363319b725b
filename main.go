package main

import "github.com/pilgrimlyieu/starwatch/cmd"

func main() {
	cmd.Execute()
}
