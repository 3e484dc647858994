// Command descent fits a line to a sample set with batch gradient descent, sweeps learning rates
// and predicts from saved models.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
