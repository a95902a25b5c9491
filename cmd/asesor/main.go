// Command asesor runs the CETES advisor: web UI, terminal chat and data refresh.
package main

import (
	"context"
	"os"

	"github.com/chris/cetes/internal/cli"
	"github.com/chris/cetes/internal/logging"
)

func main() {
	if err := cli.NewRootCmd().ExecuteContext(context.Background()); err != nil {
		logging.Logger().Error("fatal error", "err", err)
		os.Exit(1)
	}
}
