package main

import "github.com/rodsilvavieira2/screenshot-gnome/cmd/screenshot-gnome/commands"

func main() {
	commands.Execute()
}
