// Command assetvariant manages asset variants: derived assets that store
// only the fields they override on top of an origin asset.
package main

import (
	"context"
	"os"

	"github.com/roach88/assetvariant/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
