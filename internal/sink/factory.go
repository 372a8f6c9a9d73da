package sink

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"quotation-service/internal/common/config"
	"quotation-service/internal/common/database"
	"quotation-service/internal/common/logger"
)

// Set is the configured backends plus whatever needs closing on shutdown.
type Set struct {
	Sink    Sink
	closers []io.Closer
}

func (s *Set) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// NewFromConfig builds the backends listed in cfg.Sink.Backends. A backend
// that cannot be built is logged and left out; the service keeps running
// without it. A disabled sink yields Nop.
func NewFromConfig(ctx context.Context, cfg *config.Config, log logger.Logger) *Set {
	set := &Set{Sink: Nop{}}
	if !cfg.Sink.Enabled {
		return set
	}

	var sinks []Sink
	for _, name := range cfg.Sink.Backends {
		s, closer, err := build(ctx, strings.ToLower(name), cfg, log)
		if err != nil {
			log.Warn("Record sink backend unavailable", logger.Fields{
				"sink":  name,
				"error": err.Error(),
			})
			continue
		}
		sinks = append(sinks, s)
		if closer != nil {
			set.closers = append(set.closers, closer)
		}
		log.Info("Record sink backend ready", logger.Fields{"sink": s.Name()})
	}

	if len(sinks) > 0 {
		set.Sink = NewMulti(sinks...)
	}
	return set
}

func build(ctx context.Context, name string, cfg *config.Config, log logger.Logger) (Sink, io.Closer, error) {
	switch name {
	case "sheets":
		s, err := NewSheets(ctx, cfg.Sink.Sheets)
		return s, nil, err

	case "firestore":
		s, err := NewFirestore(ctx, cfg.Sink.Firestore.ProjectID, cfg.Sink.Firestore.Collection)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil

	case "postgres":
		db, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return nil, nil, err
		}
		s := NewPostgres(db, cfg.Sink.Postgres.Table, cfg.Sink.Columns)
		tctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := s.EnsureTable(tctx); err != nil {
			// the database may come up later; inserts will report it
			log.Warn("Could not ensure sink table", logger.Fields{"error": err.Error()})
		}
		return s, s, nil

	case "redis":
		client, err := database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return nil, nil, err
		}
		s := NewRedis(client, cfg.Sink.Redis.Key)
		return s, s, nil

	case "elasticsearch":
		client, err := database.NewElasticsearch(cfg.Sink.Elasticsearch)
		if err != nil {
			return nil, nil, err
		}
		return NewElasticsearch(client, cfg.Sink.Elasticsearch.Index), nil, nil
	}
	return nil, nil, errors.New("unknown sink backend " + name)
}
