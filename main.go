package main

import "timefiles.com/timefiles/cmd"

func main() {
	cmd.Execute()
}
