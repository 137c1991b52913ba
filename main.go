// =============================================================================
// aqtools - Main Entry Point
// =============================================================================
//
// USAGE:
//   aqtools extract     - Pull readings from the database into a wide table
//   aqtools preprocess  - Apply the configured cleaning steps
//   aqtools impute      - Fill missing values by linear regression
//   aqtools validate    - Check a table before encoding
//   aqtools encode      - Convert a table into a transactional file
//   aqtools stats       - Compute statistics of a transactional file
//   aqtools version     - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : Table model, parsers, pipeline stages and the encoder
//   - pkg/       : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/aqmining/aqtools/cmd"
)

func main() {
	cmd.Execute()
}
