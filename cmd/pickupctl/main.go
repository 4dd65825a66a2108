package main

import "blinklean/cmd/pickupctl/cmd"

func main() {
	cmd.Execute()
}
