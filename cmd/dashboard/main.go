package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"opspulse/pkg/client"
	"opspulse/pkg/config"
	"opspulse/pkg/dashboard"
	"opspulse/pkg/live"
	"opspulse/pkg/probe"
	"opspulse/pkg/ratings"
	"opspulse/pkg/version"
	"opspulse/pkg/web"
)

func main() {
	cfg := config.Load()

	apiBase := flag.String("api", cfg.APIBaseURL, "monitoring REST base URL (env API_BASE_URL)")
	wsBase := flag.String("ws", cfg.WSBaseURL, "monitoring WebSocket base URL (env WS_URL); empty disables live updates")
	listen := flag.String("listen", cfg.ListenAddr, "view server listen address (env LISTEN_ADDR)")
	probeTargets := flag.String("probe", "", "comma separated name=url pairs for direct probes")
	showVersion := flag.Bool("v", false, "print version and exit")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Sugar()

	if *showVersion {
		log.Infow("opspulse dashboard", "version", version.Build)
		return
	}

	api := client.New(*apiBase, nil, log)
	api.CheckTimeout = cfg.CheckTimeout

	var lm *live.Manager
	if *wsBase != "" {
		lm, err = live.New(*wsBase, live.Policy{
			MaxAttempts: cfg.ReconnectAttempts,
			RetryDelay:  cfg.ReconnectDelay,
		}, log)
		if err != nil {
			log.Fatalw("live manager init failed", "err", err)
		}
	}

	view := dashboard.New(api, lm, cfg.PollInterval, log)
	defer view.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := view.Start(ctx); err != nil {
		// keep serving: the view recovers on the next update or manual refresh
		log.Warnw("initial snapshot load failed", "err", err)
	}
	cancel()

	prober := probe.New(cfg.ProbeTimeout, cfg.CheckTimeout, log)
	srv := web.NewServer(view, api, ratings.New(api), prober, parseTargets(*probeTargets), log)

	httpSrv := &http.Server{Addr: *listen, Handler: srv.Routes()}
	go func() {
		log.Infow("view server listening", "addr", *listen, "api", *apiBase, "live", lm != nil, "version", version.Build)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("view server failed", "err", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(shutdownCtx)
	view.Close()
}

func parseTargets(s string) []probe.Target {
	var out []probe.Target
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, url, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		out = append(out, probe.Target{Name: name, URL: url})
	}
	return out
}
