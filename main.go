package main

import "github.com/frahmantamala/power-data-portal/cmd"

func main() {
	cmd.Execute()
}
