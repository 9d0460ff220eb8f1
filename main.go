package main

import "swachhconnect/cmd"

func main() {
	cmd.Execute()
}
