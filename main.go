package main

import "github.com/KaramelBytes/tidyloom/cmd"

func main() {
	cmd.Execute()
}
