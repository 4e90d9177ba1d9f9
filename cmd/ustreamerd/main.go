// Command ustreamerd serves an MJPEG stream over HTTP: one shared
// frame, refreshed on a timer from an external producer (or, with
// USTREAMERD_DEMO set, a bundled synthetic one), fanned out to any number of
// streaming clients. Install it as a platform service with
// "ustreamerd -service install", or run it directly.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/kardianos/service"

	"github.com/warpcomdev/ustreamerd/internal/config"
	"github.com/warpcomdev/ustreamerd/internal/confwatch"
	"github.com/warpcomdev/ustreamerd/internal/demo"
	"github.com/warpcomdev/ustreamerd/internal/dirsource"
	"github.com/warpcomdev/ustreamerd/internal/hub"
	"github.com/warpcomdev/ustreamerd/internal/httpapi"
	"github.com/warpcomdev/ustreamerd/internal/metrics"
	"github.com/warpcomdev/ustreamerd/internal/source"
	"github.com/warpcomdev/ustreamerd/internal/svclog"
)

var serviceAction = flag.String("service", "", "service control action: install, uninstall, start, stop")

func main() {
	flag.Parse()

	cfg, err := config.Load(os.Getenv("USTREAMERD_ENV_FILE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	logger, err := svclog.New(cfg.LogFile, cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	prog := &program{cfg: cfg, logger: logger}

	svcConfig := &service.Config{
		Name:        "ustreamerd",
		DisplayName: "ustreamerd MJPEG streaming service",
		Description: "Serves a single MJPEG stream fanned out to many HTTP clients.",
	}
	svc, err := service.New(prog, svcConfig)
	if err != nil {
		logger.Fatal("building service", svclog.Err(err))
	}

	if *serviceAction != "" {
		if err := service.Control(svc, *serviceAction); err != nil {
			logger.Fatal("service control failed", svclog.String("action", *serviceAction), svclog.Err(err))
		}
		return
	}

	if err := svc.Run(); err != nil {
		logger.Fatal("service run failed", svclog.Err(err))
	}
}

// program implements service.Interface, the same role the teacher's
// servicelog.Logger plays alongside kardianos/service: Start must
// return promptly, with the real work happening in a goroutine, and
// Stop must bring it down cleanly.
type program struct {
	cfg     config.Config
	logger  svclog.Logger
	cancel  context.CancelFunc
	httpSrv *http.Server
	h       *hub.Hub
}

func (p *program) Start(s service.Service) error {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	go p.run(ctx)
	return nil
}

func (p *program) Stop(s service.Service) error {
	if p.cancel != nil {
		p.cancel()
	}
	if p.h != nil {
		p.h.Stop()
	}
	if p.httpSrv != nil {
		return p.httpSrv.Shutdown(context.Background())
	}
	return nil
}

func (p *program) run(ctx context.Context) {
	m := metrics.New()
	src := source.New()

	p.h = hub.New(src, p.cfg.RefreshInterval(), p.logger, m)
	go p.h.Run()

	switch {
	case p.cfg.FrameDir != "":
		watcher := dirsource.New(p.cfg.FrameDir, p.cfg.FrameWidth, p.cfg.FrameHeight, src, p.logger)
		go func() {
			if err := watcher.Run(ctx); err != nil {
				p.logger.Warn("dirsource stopped", svclog.Err(err))
			}
		}()
	case p.cfg.Demo:
		producer := demo.NewBlank(src, 15)
		go producer.Run(ctx)
	}

	if p.cfg.ConfigFile != "" {
		watcher := confwatch.New(p.cfg.ConfigFile, p.logger)
		go func() {
			if err := watcher.Run(ctx); err != nil {
				p.logger.Warn("config watcher stopped", svclog.Err(err))
			}
		}()
		go p.applyReloads(watcher.Updates)
	}

	srv := httpapi.New(p.h, p.logger, m)
	addr, err := p.cfg.Addr()
	if err != nil {
		p.logger.Fatal("invalid listen address", svclog.Err(err))
		return
	}

	p.httpSrv = &http.Server{
		Addr:         addr,
		Handler:      srv,
		ReadTimeout:  p.cfg.ReadTimeout(),
		WriteTimeout: 0, // streaming responses never complete within a fixed window
	}

	p.logger.Info("listening", svclog.String("addr", addr))
	if err := p.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		p.logger.Fatal("http server stopped", svclog.Err(err))
	}
}

// applyReloads only swaps the knobs that can change without rebuilding
// the Hub or the listener. RefreshInterval, Host, and Port are baked
// into the running Hub/http.Server at construction; a reload that
// changes any of them is logged rather than silently dropped.
func (p *program) applyReloads(updates <-chan config.Config) {
	for cfg := range updates {
		if cfg.RefreshIntervalMicros != p.cfg.RefreshIntervalMicros || cfg.Host != p.cfg.Host || cfg.Port != p.cfg.Port {
			p.logger.Warn("config reload requires restart to take effect",
				svclog.Int("refresh_interval_micros", cfg.RefreshIntervalMicros),
				svclog.String("host", cfg.Host),
				svclog.Int("port", cfg.Port))
		}
		p.logger.Info("config reloaded", svclog.Bool("debug", cfg.Debug))
		p.cfg.Debug = cfg.Debug
	}
}
