package main

import "github.com/mdscan/mdscan/cmd"

func main() {
	cmd.Execute()
}
