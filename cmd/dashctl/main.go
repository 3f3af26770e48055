// Command dashctl runs operator tasks against the back-office database:
// migrations, seeding, spreadsheet import and export, and invoice number previews.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
