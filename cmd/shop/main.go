package main

import "github.com/Skotchmaster/solo_shop/cmd/shop/commands"

func main() {
	commands.Execute()
}
