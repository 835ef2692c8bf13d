// cmd/reqdump/main.go
//
// reqdump – request-context inspector.
//
// Sub-commands
// ------------
//
//   - cgi    Serve exactly one request as a CGI program (net/http/cgi).  The
//     web server supplies the environment and stdin; the dump goes to
//     stdout as the HTTP response.
//   - env    Build a context straight from the process environment and
//     stdin, then print it.  Handy for replaying a captured CGI env.
//   - serve  Local development server with the same router plus /metrics.
//
// Every mode shares one bootstrap: config (koanf), file logger (zap +
// lumberjack), optional GeoIP database, and the optional SQL session
// store.  See bootstrap.go.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// Version is stamped at build time with -ldflags.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:           "reqdump",
	Short:         "Inspect the request context built for CGI and HTTP requests",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		rootCmd.PrintErrln("reqdump:", err)
		os.Exit(1)
	}
}
