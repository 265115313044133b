package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/topolab/internal/api"
	"github.com/matzehuels/topolab/pkg/annotations"
	"github.com/matzehuels/topolab/pkg/engine"
	"github.com/matzehuels/topolab/pkg/runtime"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	config    string // optional TOML config file
	listen    string // listen address, overrides config
	states    string // optional JSON container-state file
	noRefresh bool   // disable the periodic state refresh loop
}

// serveCommand creates the serve command running the editing API over one
// topology file.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve <topology-file>",
		Short: "Serve the topology editing API",
		Long: `Serve starts the revisioned editing API over a topology file.

Editors fetch the current graph with GET /api/v1/snapshot, apply changes
with POST /api/v1/commands, and follow accepted revisions on the
/api/v1/ws websocket feed. Annotations live in a sidecar store next to
the file unless the config selects redis or mongo.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.config, "config", "c", "", "TOML config file")
	cmd.Flags().StringVarP(&opts.listen, "listen", "l", "", "listen address (overrides config)")
	cmd.Flags().StringVar(&opts.states, "states", "", "JSON container-state file re-read on each refresh")
	cmd.Flags().BoolVar(&opts.noRefresh, "no-refresh", false, "disable the periodic state refresh loop")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, path string, opts serveOpts) error {
	cfg, err := loadConfig(opts.config)
	if err != nil {
		return err
	}
	if opts.listen != "" {
		cfg.Listen = opts.listen
	}
	cfg.Topology = path

	store, err := c.newAnnotationStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	var states runtime.Source
	if opts.states != "" {
		states = runtime.FileSource{Path: opts.states}
	}

	eng := engine.New(engine.Config{
		Path:   cfg.Topology,
		Store:  store,
		States: states,
		Logger: c.Logger,
	})
	if err := eng.Load(ctx); err != nil {
		return err
	}

	if states != nil && !opts.noRefresh && cfg.Runtime.Refresh.Duration > 0 {
		go refreshLoop(ctx, eng, cfg.Runtime.Refresh.Duration, c)
	}
	go watchLoop(ctx, eng, cfg.Topology, c)

	srv := &http.Server{
		Addr:    cfg.Listen,
		Handler: api.NewServer(eng, c.Logger).Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		c.Logger.Info("serving topology", "path", cfg.Topology, "listen", cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	c.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newAnnotationStore wires the configured annotation backend.
func (c *CLI) newAnnotationStore(ctx context.Context, cfg Config) (annotations.Store, error) {
	lab := cfg.Topology
	switch cfg.Annotations.Backend {
	case "", "file":
		return annotations.NewFileStore(annotations.SidecarPath(cfg.Topology)), nil
	case "redis":
		c.Logger.Debug("using redis annotation store", "addr", cfg.Annotations.RedisAddr)
		return annotations.NewRedisStore(cfg.Annotations.RedisAddr, lab), nil
	case "mongo":
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Annotations.MongoURI))
		if err != nil {
			return nil, err
		}
		coll := client.Database(cfg.Annotations.MongoDatabase).Collection("annotations")
		c.Logger.Debug("using mongo annotation store", "database", cfg.Annotations.MongoDatabase)
		return annotations.NewMongoStore(coll, lab), nil
	default:
		return nil, errors.New("unknown annotation backend " + cfg.Annotations.Backend)
	}
}

// watchLoop polls the topology file's modification time and feeds changes
// to the engine. The engine decides whether a change is its own write or a
// genuine external edit.
func watchLoop(ctx context.Context, eng *engine.Engine, path string, c *CLI) {
	var last time.Time
	if info, err := os.Stat(path); err == nil {
		last = info.ModTime()
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			info, err := os.Stat(path)
			if err != nil {
				continue
			}
			if info.ModTime().Equal(last) {
				continue
			}
			last = info.ModTime()
			if _, err := eng.HandleFileChange(ctx); err != nil {
				c.Logger.Warn("reload failed", "path", path, "err", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// refreshLoop rebuilds the live-state projection on a fixed interval.
func refreshLoop(ctx context.Context, eng *engine.Engine, every time.Duration, c *CLI) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := eng.Refresh(ctx); err != nil {
				c.Logger.Warn("refresh failed", "err", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
