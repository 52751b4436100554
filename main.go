package main

import "tastymetrics/cmd"

func main() {
	cmd.Execute()
}
