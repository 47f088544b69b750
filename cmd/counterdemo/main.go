// Command counterdemo runs a counter store driven by a timer effect and
// prints every count it publishes.
package main

import (
	"os"
)

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
