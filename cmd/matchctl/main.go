// Command matchctl runs the fixture import and other operator tasks.
//
// Usage:
//
//	matchctl import
//	matchctl schedule
//	matchctl token --username alice --admin --ttl 24h
package main

import (
	"os"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}
