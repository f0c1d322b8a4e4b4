package main

import "beestore/internal/cmd"

func main() {
	cmd.Execute()
}
