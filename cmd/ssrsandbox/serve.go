package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/caffeineduck/ssrsandbox/host"
	"github.com/caffeineduck/ssrsandbox/metrics"
	"github.com/caffeineduck/ssrsandbox/protocol"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// runServe implements server mode: construct one Host, then loop
// reading framed requests from stdin and writing framed responses to
// stdout until EOF, per spec.md §6. Generalizes the teacher's
// cmd/goru serve.go HTTP-server shape into the spec's stdio protocol;
// the session manager and REST endpoints have no analog here, since
// spec.md allows only one render in flight at a time against one Host.
func runServe(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("server mode requires exactly <chunks-dir>")
	}
	chunksDir := args[0]

	cfg, err := buildConfig(cmd, chunksDir)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	m := metrics.New()
	if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
		go serveMetrics(addr, m)
	}

	h, err := host.New(cfg, m)
	if err != nil {
		return fmt.Errorf("constructing host: %w", err)
	}
	defer h.Close()

	r := bufio.NewReader(os.Stdin)
	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()

	for {
		req, err := protocol.ReadRequest(r)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("reading request: %w", err)
		}

		result, renderErr := h.Render(context.Background(), req.Entry, req.Props)
		if renderErr != nil {
			if err := protocol.WriteError(w, renderErr.Error()); err != nil {
				return err
			}
		} else {
			if err := protocol.WriteOk(w, result.Body); err != nil {
				return err
			}
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
}

func serveMetrics(addr string, m *metrics.Metrics) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
	log.Info().Str("addr", addr).Msg("serving metrics")
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error().Err(err).Msg("metrics server failed")
	}
}
