package main

import "github.com/maxvaer/scanport/cmd"

func main() {
	cmd.Execute()
}
