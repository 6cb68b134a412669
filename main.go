// main.go
//
// Entry point for the bargesim CLI; commands live in cmd/

package main

import (
	"github.com/hddwater/bargesim/cmd"
)

func main() {
	cmd.Execute()
}
