package main

import "github.com/samhoang/skillkit/cmd"

func main() {
	cmd.Execute()
}
