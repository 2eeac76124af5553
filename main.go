package main

import "github.com/umoc-outing-club/gear-locker/cmd"

func main() {
	cmd.Execute()
}
