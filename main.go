package main

import "satisfactory-save-edit/cli"

func main() {
	cli.Execute()
}
