// Package store provides the generic GET/PUT persistence collaborator for
// named configuration resources. Retry and transport policy live here, not
// in the settings engine.
package store

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrBadResourceName is returned for empty or path-traversing resource names.
var ErrBadResourceName = errors.New("invalid resource name")

// ResourceStore reads and writes whole configuration documents by resource
// name. Get returns (nil, nil) when the resource has never been persisted;
// callers treat absence as "use defaults". Put always writes the full
// document, never a diff.
type ResourceStore interface {
	Get(ctx context.Context, resource string) (json.RawMessage, error)
	Put(ctx context.Context, resource string, doc any) error
}
