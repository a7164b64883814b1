package supabase

import "order-board/internal/port"

// Store is the hosted-backend storage: rows in the orders table, blobs in the
// images bucket.
type Store struct {
	*OrdersTable
	*StorageClient
}

func NewStore(client *Client) (*Store, error) {
	storageClient, err := NewStorageClient(
		client.Config.SupabaseURL,
		client.Config.SupabasePublishableKey,
		client.Config.SupabaseStorageBucket,
	)
	if err != nil {
		return nil, err
	}

	return &Store{
		OrdersTable:   NewOrdersTable(client),
		StorageClient: storageClient,
	}, nil
}

var _ port.Storage = (*Store)(nil)
