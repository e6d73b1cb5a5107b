package main

import "github.com/inovacc/drivesign/cmd"

func main() {
	cmd.Execute()
}
