package main

import (
	"context"
	"rankwatch/cmd/rankwatch/commands"

	_ "time/tzdata"
)

func main() {
	commands.ExecuteContext(context.Background())
}
