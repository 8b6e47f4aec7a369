// Package store keeps a gallery of named trees for the HTTP API.
//
// [MemoryStore] serves development and tests; [MongoStore] persists records
// in a MongoDB collection so several server instances share one gallery.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	cerrors "github.com/matzehuels/coaldraw/pkg/errors"
	"github.com/matzehuels/coaldraw/pkg/tree"
)

// ErrNotFound is returned when no record has the requested id.
var ErrNotFound = errors.New("tree not found")

// Record is a stored tree.
type Record struct {
	ID        string        `json:"id" bson:"_id"`
	Name      string        `json:"name" bson:"name"`
	Tree      tree.Document `json:"tree" bson:"tree"`
	CreatedAt time.Time     `json:"created_at" bson:"created_at"`
}

// Store persists records. List returns the newest records first; a
// non-positive limit returns all of them.
type Store interface {
	Put(ctx context.Context, r Record) (Record, error)
	Get(ctx context.Context, id string) (Record, error)
	List(ctx context.Context, limit int) ([]Record, error)
	Delete(ctx context.Context, id string) error
	Close(ctx context.Context) error
}

// NewRecord wraps t for storage.
func NewRecord(name string, t *tree.Tree) Record {
	return Record{Name: name, Tree: tree.ToDocument(t)}
}

// prepare validates r and fills in the id and creation time when missing.
func prepare(r Record, now func() time.Time) (Record, error) {
	if err := cerrors.ValidateLabel(r.Name); err != nil {
		return r, err
	}
	if _, err := r.Tree.Tree(); err != nil {
		return r, cerrors.Wrap(cerrors.ErrCodeInvalidTree, err, "tree %q", r.Name)
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	} else if err := cerrors.ValidateID(r.ID); err != nil {
		return r, err
	}
	if r.CreatedAt.IsZero() {
		// MongoDB stores milliseconds
		r.CreatedAt = now().UTC().Truncate(time.Millisecond)
	}
	return r, nil
}
