package adapter

import "context"

// ProofStore keeps offline payment proof images and returns a reference to them.
type ProofStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}
