package main

import "ecomm-sync/cmd"

func main() {
	cmd.Execute()
}
