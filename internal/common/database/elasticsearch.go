// internal/common/database/elasticsearch.go
package database

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"quotation-service/internal/common/config"
)

// ElasticsearchClient indexes quotation documents.
type ElasticsearchClient struct {
	Client *elasticsearch.Client
}

func NewElasticsearch(cfg config.ElasticsearchConfig) (*ElasticsearchClient, error) {
	if len(cfg.Addresses) == 0 {
		return nil, errors.New("elasticsearch addresses are empty")
	}
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}
	return &ElasticsearchClient{Client: es}, nil
}

func (c *ElasticsearchClient) Ping(ctx context.Context) error {
	res, err := c.Client.Ping(c.Client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping: %w", err)
	}
	defer res.Body.Close()
	return responseError("ping", res)
}

// Index stores one JSON document under a server generated id.
func (c *ElasticsearchClient) Index(ctx context.Context, index string, doc []byte) error {
	res, err := c.Client.Index(index, bytes.NewReader(doc), c.Client.Index.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch index: %w", err)
	}
	defer res.Body.Close()
	return responseError("index", res)
}

// responseError turns a non-2xx response into an error carrying the
// server's error type and reason when the body has them.
func responseError(op string, res *esapi.Response) error {
	if !res.IsError() {
		return nil
	}
	raw, _ := io.ReadAll(io.LimitReader(res.Body, 4096))

	var body struct {
		Error struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Error.Type != "" {
		return fmt.Errorf("elasticsearch %s: %s: %s: %s", op, res.Status(), body.Error.Type, body.Error.Reason)
	}
	return fmt.Errorf("elasticsearch %s: %s: %s", op, res.Status(), bytes.TrimSpace(raw))
}
