package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"quotation-service/internal/common/database"
)

// Elasticsearch indexes each row as a document.
type Elasticsearch struct {
	client *database.ElasticsearchClient
	index  string
	now    func() time.Time
}

func NewElasticsearch(client *database.ElasticsearchClient, index string) *Elasticsearch {
	return &Elasticsearch{client: client, index: index, now: time.Now}
}

func (e *Elasticsearch) Name() string { return "elasticsearch" }

func (e *Elasticsearch) AppendRow(ctx context.Context, row Row) error {
	doc, err := json.Marshal(row.Document(e.now()))
	if err != nil {
		return fmt.Errorf("elasticsearch: encode row: %w", err)
	}
	return e.client.Index(ctx, e.index, doc)
}
