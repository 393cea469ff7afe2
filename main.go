package main

import "github.com/derickschaefer/workwatch/cmd"

func main() {
	cmd.Execute()
}
