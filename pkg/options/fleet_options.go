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
	"errors"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*FleetOptions)(nil)

// FleetOptions controls the initial fleet and request housekeeping.
type FleetOptions struct {
	// SeedFile is a YAML or JSON list of trucks. Empty uses the built-in fleet.
	SeedFile string `json:"seed-file" mapstructure:"seed-file"`

	// RequestTTL is how long a request stays pending before it expires.
	RequestTTL time.Duration `json:"request-ttl" mapstructure:"request-ttl"`

	// SweepInterval is how often pending requests are checked for expiry.
	SweepInterval time.Duration `json:"sweep-interval" mapstructure:"sweep-interval"`

	// DeliveryTimeout bounds the publishing of one broadcast change.
	DeliveryTimeout time.Duration `json:"delivery-timeout" mapstructure:"delivery-timeout"`
}

func NewFleetOptions() *FleetOptions {
	return &FleetOptions{
		RequestTTL:      30 * time.Minute,
		SweepInterval:   time.Minute,
		DeliveryTimeout: 30 * time.Second,
	}
}

func (o *FleetOptions) Validate() []error {
	var errs []error

	if o.RequestTTL <= 0 {
		errs = append(errs, errors.New("--fleet.request-ttl must be positive"))
	}
	if o.SweepInterval <= 0 {
		errs = append(errs, errors.New("--fleet.sweep-interval must be positive"))
	}
	if o.DeliveryTimeout <= 0 {
		errs = append(errs, errors.New("--fleet.delivery-timeout must be positive"))
	}

	return errs
}

func (o *FleetOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.SeedFile, "fleet.seed-file", o.SeedFile, "YAML or JSON file with the initial trucks.")
	fs.DurationVar(&o.RequestTTL, "fleet.request-ttl", o.RequestTTL, "Age after which pending requests expire.")
	fs.DurationVar(&o.SweepInterval, "fleet.sweep-interval", o.SweepInterval, "Interval of the request expiry sweep.")
	fs.DurationVar(&o.DeliveryTimeout, "fleet.delivery-timeout", o.DeliveryTimeout, "Time allowed to publish the effects of one broadcast change.")
}
