package main

import "job-dashboard/internal/cmd"

func main() {
	cmd.Execute()
}
