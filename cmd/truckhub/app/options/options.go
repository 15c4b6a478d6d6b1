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
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/truckwatch-io/truckwatch/internal/truckhub"
	"github.com/truckwatch-io/truckwatch/pkg/app"
	"github.com/truckwatch-io/truckwatch/pkg/log"
	"github.com/truckwatch-io/truckwatch/pkg/options"
)

type HubOptions struct {
	HttpOptions  *options.HttpOptions  `json:"http" mapstructure:"http"`
	GrpcOptions  *options.GrpcOptions  `json:"grpc" mapstructure:"grpc"`
	MqttOptions  *options.MqttOptions  `json:"mqtt" mapstructure:"mqtt"`
	S3Options    *options.S3Options    `json:"s3" mapstructure:"s3"`
	StoreOptions *options.StoreOptions `json:"store" mapstructure:"store"`
	FleetOptions *options.FleetOptions `json:"fleet" mapstructure:"fleet"`
	Log          *log.Options          `json:"log" mapstructure:"log"`
}

var _ app.NamedFlagSetOptions = (*HubOptions)(nil)

func NewHubOptions() *HubOptions {
	o := &HubOptions{
		HttpOptions:  options.NewHttpOptions(),
		GrpcOptions:  options.NewGrpcOptions(),
		MqttOptions:  options.NewMqttOptions(),
		S3Options:    options.NewS3Options(),
		StoreOptions: options.NewStoreOptions(),
		FleetOptions: options.NewFleetOptions(),
		Log:          log.NewOptions(),
	}

	return o
}

func (o *HubOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	o.HttpOptions.AddFlags(fss.FlagSet("http"))
	o.GrpcOptions.AddFlags(fss.FlagSet("grpc"))
	o.MqttOptions.AddFlags(fss.FlagSet("mqtt"))
	o.S3Options.AddFlags(fss.FlagSet("s3"))
	o.StoreOptions.AddFlags(fss.FlagSet("store"))
	o.FleetOptions.AddFlags(fss.FlagSet("fleet"))
	o.Log.AddFlags(fss.FlagSet("log"))
	return fss
}

func (o *HubOptions) Complete() error {
	if o.Log.Name == "" {
		o.Log.Name = "truckhub"
	}
	return nil
}

func (o *HubOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.HttpOptions.Validate()...)
	errs = append(errs, o.GrpcOptions.Validate()...)
	errs = append(errs, o.MqttOptions.Validate()...)
	errs = append(errs, o.S3Options.Validate()...)
	errs = append(errs, o.StoreOptions.Validate()...)
	errs = append(errs, o.FleetOptions.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return utilerrors.NewAggregate(errs)
}

func (o *HubOptions) Config() (*truckhub.Config, error) {
	return &truckhub.Config{
		HttpOptions:  o.HttpOptions,
		GrpcOptions:  o.GrpcOptions,
		MqttOptions:  o.MqttOptions,
		S3Options:    o.S3Options,
		StoreOptions: o.StoreOptions,
		FleetOptions: o.FleetOptions,
	}, nil
}
