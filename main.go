package main

import "github.com/danfragoso/termpod/cmd"

func main() {
	cmd.Execute()
}
