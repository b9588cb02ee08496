package main

import "timetable-backend/cmd/timetable-cli/cmd"

func main() {
	cmd.Execute()
}
