package main

import (
	"github.com/DomeLiquid/paylink/cmd"
	_ "github.com/DomeLiquid/paylink/cmd/cli"
	_ "github.com/DomeLiquid/paylink/cmd/server"
)

func main() {
	cmd.Execute()
}
