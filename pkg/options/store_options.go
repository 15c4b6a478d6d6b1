// Copyright 2025 The Truckwatch Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package options

import (
	"fmt"

	"github.com/spf13/pflag"
)

const (
	StoreDriverMemory = "memory"
	StoreDriverSQLite = "sqlite"
)

var _ IOptions = (*StoreOptions)(nil)

// StoreOptions selects where users, favorites, requests and reviews live.
type StoreOptions struct {
	// Driver is 'memory' or 'sqlite'.
	Driver string `json:"driver" mapstructure:"driver"`

	// Path is the SQLite database file. ':memory:' keeps it in memory.
	Path string `json:"path" mapstructure:"path"`
}

func NewStoreOptions() *StoreOptions {
	return &StoreOptions{
		Driver: StoreDriverMemory,
		Path:   "truckhub.db",
	}
}

func (o *StoreOptions) Validate() []error {
	var errs []error

	switch o.Driver {
	case StoreDriverMemory:
	case StoreDriverSQLite:
		if o.Path == "" {
			errs = append(errs, fmt.Errorf("--store.path is required for the %s driver", o.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", o.Driver))
	}

	return errs
}

func (o *StoreOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Driver, "store.driver", o.Driver, "Storage backend: 'memory' or 'sqlite'.")
	fs.StringVar(&o.Path, "store.path", o.Path, "SQLite database file used by the sqlite driver.")
}
