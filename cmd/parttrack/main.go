// Command parttrack hosts and drives tracker-based test suites from the
// command line.
package main

import "github.com/keegan-voss/parttrack/internal/cli"

func main() {
	cli.Execute()
}
