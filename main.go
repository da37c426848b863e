package main

import "github.com/longkey1/thoughtrelay/cmd"

func main() {
	cmd.Execute()
}
