package main

import "github.com/qrave1/peerlink/cmd"

func main() {
	cmd.Execute()
}
