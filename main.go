package main

import "abchart/cmd"

func main() {
	cmd.Execute()
}
