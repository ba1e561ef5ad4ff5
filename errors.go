package termexp

import (
	"errors"
	"fmt"

	"github.com/hupe1980/termexp/expand"
	"github.com/hupe1980/termexp/kv"
	"github.com/hupe1980/termexp/shard"
)

var (
	// ErrClosed is returned when the database is used after Close.
	ErrClosed = errors.New("termexp: database closed")

	// ErrInvalidRSet is returned for relevance sets that cannot be used,
	// e.g. a document id of zero.
	ErrInvalidRSet = errors.New("termexp: invalid relevance set")

	// ErrInvalidScheme is returned for unknown expansion scheme names.
	ErrInvalidScheme = errors.New("termexp: invalid expansion scheme")

	// ErrNoShards is returned when a database is created without shards.
	ErrNoShards = errors.New("termexp: no shards")
)

// ErrUnknownDocument indicates a document id that no shard holds.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrUnknownDocument struct {
	DocID uint32
	cause error
}

func (e *ErrUnknownDocument) Error() string {
	return fmt.Sprintf("termexp: unknown document %d", e.DocID)
}

func (e *ErrUnknownDocument) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, kv.ErrClosed) {
		return fmt.Errorf("%w: %w", ErrClosed, err)
	}
	if errors.Is(err, expand.ErrUnknownScheme) {
		return fmt.Errorf("%w: %w", ErrInvalidScheme, err)
	}
	return err
}

func unknownDocument(did uint32, err error) error {
	if errors.Is(err, shard.ErrDocNotFound) {
		return &ErrUnknownDocument{DocID: did, cause: err}
	}
	return err
}
