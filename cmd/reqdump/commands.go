// cmd/reqdump/commands.go
//
// Cobra sub-commands: cgi, env, and serve.
//
// Each command bootstraps config, logging, and the session store, then
// hands the request to the shared dump pipeline.  env releases multipart
// temp files itself; the HTTP modes rely on request.Middleware for that.
package main

import (
	"errors"
	"fmt"
	"net/http/cgi"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yanizio/routing/internal/request"
	"github.com/yanizio/routing/internal/requestinfo"
	"github.com/yanizio/routing/internal/server"
)

var cgiCmd = &cobra.Command{
	Use:   "cgi",
	Short: "Serve one request as a CGI program",
	Long: `Reads the CGI environment and stdin supplied by the web server, builds the
request context, and writes the dump as the HTTP response on stdout.  The
format follows the Accept header (JSON, XML, or plain text).`,
	// Some servers pass ISINDEX-style query words as argv; they are ignored.
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := bootstrap(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		return cgi.Serve(newRouter(a.mc, false))
	},
}

var envCmd = &cobra.Command{
	Use:     "env",
	Short:   "Build a request context from this process's environment and stdin",
	Example: "REQUEST_METHOD=POST CONTENT_TYPE=application/json reqdump env -o yaml < body.json",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		format, _ := cmd.Flags().GetString("output")
		if _, ok := contentTypes[format]; !ok {
			return fmt.Errorf("unknown output format %q", format)
		}

		a, err := bootstrap(cmd.Context(), interactive())
		if err != nil {
			return err
		}
		defer a.Close()

		src := request.FromEnviron(os.Environ(), cmd.InOrStdin(), a.mc.HTTP)
		defer request.Release(src)
		rc, err := request.Build(src, a.mc.Build)
		if err != nil {
			if errors.Is(err, request.ErrInputRead) {
				zap.S().Errorw("env dump aborted", "err", err)
			}
			return err
		}
		return render(cmd.OutOrStdout(), format, newSnapshot(rc, requestinfo.Build(rc, time.Now())))
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a local HTTP server that dumps every request",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		addr, _ := cmd.Flags().GetString("addr")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := bootstrap(ctx, interactive())
		if err != nil {
			return err
		}
		defer a.Close()

		return server.Run(ctx, server.New(addr, newRouter(a.mc, true)))
	},
}

func init() {
	envCmd.Flags().StringP("output", "o", formatJSON, `Output format: "json", "yaml", "xml", or "text".`)
	serveCmd.Flags().String("addr", "127.0.0.1:8080", "Listen address.")

	rootCmd.AddCommand(cgiCmd, envCmd, serveCmd)
}
