// Package store selects the repository backend of the hub.
package store

import (
	"fmt"

	"github.com/truckwatch-io/truckwatch/internal/truckhub/core"
	"github.com/truckwatch-io/truckwatch/internal/truckhub/store/memory"
	"github.com/truckwatch-io/truckwatch/internal/truckhub/store/sqlite"
	"github.com/truckwatch-io/truckwatch/pkg/options"
)

// Store is a repository that holds resources until closed.
type Store interface {
	core.Repository
	Close() error
}

// New opens the backend named by opts.Driver.
func New(opts *options.StoreOptions) (Store, error) {
	switch opts.Driver {
	case options.StoreDriverMemory, "":
		return memory.New(), nil
	case options.StoreDriverSQLite:
		s, err := sqlite.New(opts.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store %q: %w", opts.Path, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}
