package cli

import (
	"context"
	"io"
	"strings"

	"github.com/koustreak/biconnector/internal/cache"
	"github.com/koustreak/biconnector/internal/config"
	"github.com/koustreak/biconnector/internal/connector"
	"github.com/koustreak/biconnector/internal/errs"
	"github.com/koustreak/biconnector/internal/filestore/minio"
	"github.com/koustreak/biconnector/internal/logger"
	"github.com/koustreak/biconnector/internal/metrics"
	"github.com/koustreak/biconnector/internal/query"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// app is the wired process: one connector service and what it depends on.
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	metrics *metrics.Metrics
	svc     *connector.Service
	closers []func() error
}

// newApp wires the service from cfg. open overrides the dialect opener
// when non-nil. Logs go to logOut.
func newApp(ctx context.Context, cfg *config.Config, logOut io.Writer, open connector.Opener) (*app, error) {
	lc := cfg.LoggerConfig()
	lc.Output = logOut
	log := logger.New(lc).With().Str("service", "biconnector").Logger()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	a := &app{cfg: cfg, log: log, metrics: m}

	store, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}

	a.svc = connector.New(connector.Deps{
		Open:                open,
		Cache:               cache.New(store, cache.WithLogger(log), cache.WithMetrics(m)),
		Compiler:            query.NewCompiler(log, query.WithDropHook(m.FilterDropped)),
		Logger:              log,
		Metrics:             m,
		ConnectOptions:      cfg.ConnectOptions(),
		TableListTTL:        cfg.Cache.TableListTTL,
		TableDescriptionTTL: cfg.Cache.TableDescriptionTTL,
	})
	return a, nil
}

// openStore builds the cache store named by the configured driver.
func (a *app) openStore(ctx context.Context) (cache.Store, error) {
	cc := a.cfg.Cache
	switch strings.ToLower(cc.Driver) {
	case config.CacheDriverMemory:
		return cache.NewMemoryStore(), nil
	case config.CacheDriverFile:
		return cache.NewFileStore(cc.Dir)
	case config.CacheDriverS3:
		fc := a.cfg.FileStoreConfig()
		drv, err := minio.New(ctx, fc)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, drv.Close)
		a.log.InfoWith("object store cache ready", map[string]interface{}{"target": fc.String()})
		return cache.NewObjectStore(drv), nil
	default:
		return nil, errs.Newf(errs.ErrKindInvalidInput, "unknown cache driver: %s", cc.Driver)
	}
}

func (a *app) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.log.WarnWith("close failed", map[string]interface{}{"error": err.Error()})
		}
	}
}
