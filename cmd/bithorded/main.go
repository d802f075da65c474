// Command bithorded is the server CLI entrypoint (spec.md §6 "CLI surface
// of the server"): it accepts a config file path and exits non-zero on
// bind failure of either listener. Logging setup, signal handling, and
// executable packaging are its responsibility (§1, out of scope for the
// core itself).
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bithorde/bithorded/internal/config"
	"github.com/bithorde/bithorded/internal/metrics"
	"github.com/bithorde/bithorded/internal/nlog"
	"github.com/bithorde/bithorded/router"
	"github.com/bithorde/bithorded/server"
	"github.com/bithorde/bithorded/session"
	"github.com/bithorde/bithorded/store"
	"github.com/bithorde/bithorded/transport"
)

var (
	configPath  string
	metricsAddr string
	verbose     int
)

func init() {
	flag.StringVar(&configPath, "config", "", "path to the bithorded configuration file")
	flag.StringVar(&metricsAddr, "metrics-addr", "", "optional address to serve /metrics on")
	flag.IntVar(&verbose, "v", 0, "log verbosity")
}

func main() {
	flag.Parse()
	nlog.SetVerbose(verbose)

	if configPath == "" {
		fmt.Fprintln(os.Stderr, "missing -config")
		os.Exit(1)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		nlog.Errorf("bithorded: %v", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	m := metrics.NewRegistry(reg)
	if metricsAddr != "" {
		go serveMetrics(metricsAddr, reg)
	}

	r := buildRouter(cfg, m)
	dialUpstreams(cfg, m, r)

	srvCfg := server.Config{
		Name:          cfg.Name,
		TCPAddr:       cfg.TCPListen,
		LocalSockPath: cfg.LocalListen,
		SessionConfig: session.Config{
			OwnName:              cfg.Name,
			DefaultBindTimeoutMS: cfg.BindTimeoutMS,
			DefaultReadTimeoutMS: cfg.ReadTimeoutMS,
			Router:               r,
			Metrics:              m,
		},
	}

	srv, err := server.New(srvCfg)
	if err != nil {
		nlog.Errorf("bithorded: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	nlog.Infof("bithorded: listening tcp=%q local=%q", cfg.TCPListen, cfg.LocalListen)
	if err := srv.Serve(ctx); err != nil {
		nlog.Errorf("bithorded: server exited: %v", err)
		os.Exit(1)
	}
}

func buildRouter(cfg *config.Config, m *metrics.Registry) *router.Router {
	stores := make([]store.AssetStore, 0, len(cfg.Stores))
	for _, sc := range cfg.Stores {
		ls := store.NewLocalStore()
		stores = append(stores, ls)
		nlog.Infof("bithorded: configured store at %s (empty index; populate via link)", sc.Path)
	}
	return &router.Router{Stores: stores, Metrics: m}
}

// dialUpstreams opens one outbound connection per configured upstream and
// registers its Session with r (§4.5 step 2); a dial failure is logged,
// not fatal — the node simply has one fewer forwarding candidate.
func dialUpstreams(cfg *config.Config, m *metrics.Registry, r *router.Router) {
	for _, addr := range cfg.Upstreams {
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			nlog.Warningf("bithorded: dial upstream %s failed: %v", addr, err)
			continue
		}
		s := session.New(transport.New(conn), session.Config{
			OwnName:              cfg.Name,
			DefaultBindTimeoutMS: cfg.BindTimeoutMS,
			DefaultReadTimeoutMS: cfg.ReadTimeoutMS,
			Metrics:              m,
		})
		s.Start()
		r.AddUpstream(s)
		nlog.Infof("bithorded: dialed upstream %s", addr)
	}
}

func serveMetrics(addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	if err := http.ListenAndServe(addr, mux); err != nil {
		nlog.Warningf("bithorded: metrics listener stopped: %v", err)
	}
}
