package repository

import "context"

// SeenRepository is the durable backing of the seen-URL set.
type SeenRepository interface {
	LoadAll(ctx context.Context) ([]string, error)
	// Insert adds url to the set. Inserting an existing url is a no-op.
	Insert(ctx context.Context, url string) error
	Exists(ctx context.Context, url string) (bool, error)
}
