package main

import "github.com/Kizuruki/historybowlreview/cmd"

func main() {
	cmd.Execute()
}
