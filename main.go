package main

import "github.com/lukman83/pricehub/cmd"

func main() {
	cmd.Execute()
}
