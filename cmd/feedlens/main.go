// Command feedlens analyzes customer feedback exports: sentiment, topics,
// persisted metrics and reports.
package main

import (
	"os"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}
