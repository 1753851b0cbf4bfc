package main

import (
	"github.com/xaionaro-go/gpuenc/cmd/gpuenc/commands"
)

func main() {
	commands.Execute()
}
