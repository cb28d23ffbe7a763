// Package storage persists uploaded guideline documents and generated
// export files. Two backends exist: a local filesystem directory for
// development and an S3 compatible bucket for deployments. Both satisfy
// the narrow Put interfaces their consumers declare.
package storage

import "context"

// Store is the write interface shared by every backend.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}
