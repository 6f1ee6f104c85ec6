package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"github.com/danielpatrickdp/clause-adjudicator/internal/codec"
	"github.com/danielpatrickdp/clause-adjudicator/internal/logging"
)

var serveFlags struct {
	listen  string
	metrics string
	noStore bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve adjudications over gRPC with Prometheus metrics",
	Long: `Starts the clause.adjudicator.v1.Adjudicator gRPC service. Requests are
interpretation payloads; each verdict is stored in the audit database unless
--no-store is given. Metrics are exposed on /metrics when --metrics is set.`,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveFlags.listen, "listen", envOr("ADJUDICATOR_LISTEN", ":50052"), "gRPC listen address")
	f.StringVar(&serveFlags.metrics, "metrics", ":9090", "Metrics listen address (empty disables)")
	f.BoolVar(&serveFlags.noStore, "no-store", false, "Do not persist verdicts")
}

func runServe(cmd *cobra.Command, _ []string) error {
	log := logging.New("serve")
	a, err := loadAdjudicator()
	if err != nil {
		return err
	}

	var rec codec.Recorder
	if !serveFlags.noStore {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		rec = st
	}

	lis, err := net.Listen("tcp", serveFlags.listen)
	if err != nil {
		return err
	}
	srv := grpc.NewServer()
	codec.NewServer(a, rec).Register(srv)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var metricsSrv *http.Server
	if serveFlags.metrics != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{Addr: serveFlags.metrics, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server", "error", err)
			}
		}()
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(lis) }()
	log.Info("adjudicator serving", "listen", lis.Addr().String(), "metrics", serveFlags.metrics,
		"store", !serveFlags.noStore, "goals", len(a.Goals()))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down")
	srv.GracefulStop()
	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	return nil
}
