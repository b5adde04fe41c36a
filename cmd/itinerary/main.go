package main

import "github.com/vietddude/itinerary/internal/cli"

func main() {
	cli.Execute()
}
