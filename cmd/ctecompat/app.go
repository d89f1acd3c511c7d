package main

import (
	"context"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/leodido/ctecompat"
	"github.com/leodido/ctecompat/internal/cache"
	"github.com/leodido/ctecompat/internal/config"
	"github.com/leodido/ctecompat/internal/fetch"
	"github.com/leodido/ctecompat/internal/pdftext"
	"github.com/leodido/ctecompat/internal/shell"
)

// app holds the collaborators built from the global options and config.
type app struct {
	cfg     *config.Config
	log     *logrus.Logger
	cache   *cache.Cache
	fetcher *fetch.Fetcher
	runner  *shell.Runner
}

func newLogger(verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

func newApp(global *GlobalOptions) (*app, error) {
	log := newLogger(global.Verbose)

	cfg, err := config.Load(global.Config)
	if err != nil {
		return nil, err
	}
	if cfg.File != "" {
		log.WithField("file", cfg.File).Debug("loaded config")
	}

	a := &app{cfg: cfg, log: log, runner: shell.New(log)}
	if !global.NoCache {
		c := &cache.Cache{Config: &cache.Config{Path: cfg.CachePath}}
		if err := c.Open(); err != nil {
			if global.Offline {
				return nil, errors.Wrap(err, "offline mode needs the document cache")
			}
			log.WithError(err).Warn("document cache unavailable")
		} else {
			a.cache = c
		}
	}
	if global.Offline && a.cache != nil {
		logCachedDocuments(log, a.cache)
	}

	a.fetcher = fetch.New(a.cache, log)
	a.fetcher.Offline = global.Offline
	if cfg.Timeout > 0 {
		a.fetcher.Timeout = cfg.Timeout
	}
	if cfg.Retries >= 0 {
		a.fetcher.Retries = uint64(cfg.Retries)
	}
	return a, nil
}

// logCachedDocuments reports what offline mode can serve.
func logCachedDocuments(log logrus.FieldLogger, c *cache.Cache) {
	docs, err := c.List()
	if err != nil {
		log.WithError(err).Warn("cannot list cached documents")
		return
	}
	log.WithField("documents", len(docs)).Info("offline mode: serving remote documents from cache")
	for _, d := range docs {
		log.WithFields(logrus.Fields{
			"url":        d.Location,
			"fetched_at": d.FetchedAt.Format(time.RFC3339),
		}).Debug("cached document")
	}
}

func (a *app) Close() error {
	if a.cache == nil {
		return nil
	}
	return a.cache.Close()
}

// resolver builds a resolver with primary as first entry source and the
// other configured source as fallback.
func (a *app) resolver(primary sourceKind) (*ctecompat.Resolver, error) {
	var jsonSrc, htmlSrc ctecompat.Source
	if a.cfg.MatrixURL != "" {
		jsonSrc = ctecompat.NewJSONMatrixSource(a.fetcher, a.cfg.MatrixURL, a.log)
	}
	if a.cfg.HTMLURL != "" {
		htmlSrc = ctecompat.NewHTMLTableSource(a.fetcher, a.cfg.HTMLURL, a.log)
	}

	order := []ctecompat.Source{jsonSrc, htmlSrc}
	if primary == sourceHTML {
		if htmlSrc == nil {
			return nil, errors.Errorf("--source html needs %s to be configured", config.KeyHTMLURL)
		}
		order = []ctecompat.Source{htmlSrc, jsonSrc}
	}

	opts := []ctecompat.ResolverOption{ctecompat.WithLogger(a.log)}
	for _, s := range order {
		if s != nil {
			opts = append(opts, ctecompat.WithSources(s))
		}
	}
	if a.cfg.StatusLocation != "" {
		opts = append(opts, ctecompat.WithStatusSource(
			ctecompat.NewSupportStatusSource(a.fetcher, a.cfg.StatusLocation, pdftext.Auto, a.log),
		))
	}
	return ctecompat.NewResolver(opts...), nil
}

// repoBase returns the configured repository base, or the one published in
// the repository info file.
func (a *app) repoBase(ctx context.Context) (string, error) {
	if a.cfg.RepoBase != "" {
		return a.cfg.RepoBase, nil
	}
	data, err := a.fetcher.Fetch(ctx, a.cfg.RepoInfoURL)
	if err != nil {
		return "", errors.Wrap(err, "fetch repository info")
	}
	base, err := ctecompat.ParseRepoURL(string(data))
	if err != nil {
		return "", err
	}
	a.log.WithField("repo", base).Info("found active repository")
	return base, nil
}
