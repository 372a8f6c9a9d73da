package sink

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
)

// Firestore adds one document per row to a collection.
type Firestore struct {
	client     *firestore.Client
	collection string
}

func NewFirestore(ctx context.Context, projectID, collection string) (*Firestore, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("firestore: create client: %w", err)
	}
	return NewFirestoreFromClient(client, collection), nil
}

func NewFirestoreFromClient(client *firestore.Client, collection string) *Firestore {
	return &Firestore{client: client, collection: collection}
}

func (f *Firestore) Name() string { return "firestore" }

func (f *Firestore) AppendRow(ctx context.Context, row Row) error {
	doc := make(map[string]interface{}, len(row.Columns)+1)
	for k, v := range row.Map() {
		doc[k] = v
	}
	doc["created_at"] = firestore.ServerTimestamp
	if _, _, err := f.client.Collection(f.collection).Add(ctx, doc); err != nil {
		return fmt.Errorf("firestore add: %w", err)
	}
	return nil
}

func (f *Firestore) Close() error {
	return f.client.Close()
}
