// Command biconnector serves MySQL and PostgreSQL schemas and data to a BI
// platform over HTTP.
package main

import (
	"os"

	"github.com/koustreak/biconnector/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
