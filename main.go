package main

import "github.com/SoCo/socos/cmd"

func main() {
	cmd.Execute()
}
