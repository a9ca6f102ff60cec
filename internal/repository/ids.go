package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/healthsync/healthsync-api/pkg/idgen"
)

// NextID allocates the next free id for prefix using the record count
// as the starting hint.
func NextID(ctx context.Context, src IDLister, prefix string) (string, error) {
	ids, err := src.ListIDs(ctx)
	if err != nil {
		return "", err
	}
	count, err := src.Count(ctx)
	if err != nil {
		return "", err
	}
	return idgen.Next(prefix, ids, count), nil
}

// InsertWithID allocates an id and calls insert with it. When insert
// reports ErrIDTaken, because a concurrent writer took the same id, the
// id is re-allocated, up to attempts times. Any other error is returned
// as is.
func InsertWithID(ctx context.Context, src IDLister, prefix string, attempts int, insert func(id string) error) (string, error) {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		var id string
		id, err = NextID(ctx, src, prefix)
		if err != nil {
			return "", fmt.Errorf("failed to allocate %s id: %w", prefix, err)
		}
		err = insert(id)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, ErrIDTaken) {
			return "", err
		}
	}
	return "", err
}
