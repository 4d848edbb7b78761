package main

import "narratrack/cmd"

func main() {
	cmd.Execute()
}
