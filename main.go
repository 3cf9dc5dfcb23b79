package main

import "github.com/nextlevelbuilder/grindbot/cmd"

func main() {
	cmd.Execute()
}
