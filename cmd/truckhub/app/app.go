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


package app

import (
	"context"
	"fmt"

	"github.com/truckwatch-io/truckwatch/cmd/truckhub/app/options"
	"github.com/truckwatch-io/truckwatch/pkg/app"
)

const (
	commandName = "truckhub"
	commandDesc = `The truck hub keeps the live state of every food truck.

Drivers start and stop broadcasting over HTTP or MQTT; an owner has at most
one truck live at a time. Consumers browse trucks, send requests, leave
reviews and are notified once each time a favorite truck goes live.`
)

func NewApp(ctx context.Context) *app.App {
	opts := options.NewHubOptions()
	application := app.NewApp(
		commandName,
		"Launch the truck broadcast hub",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithLogOptions(opts.Log),
		app.WithDefaultValidArgs(),
		app.WithEnvPrefix("TRUCKHUB"),
		app.WithContext(ctx),
		app.WithCommands(newFleetCommand()),
		app.WithRunFunc(run(opts)),
	)
	return application
}

func run(opts *options.HubOptions) app.RunFunc {
	return func(ctx context.Context) error {
		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		hub, err := cfg.NewTruckHub(ctx)
		if err != nil {
			return fmt.Errorf("failed to create truck hub: %w", err)
		}

		return hub.Run(ctx)
	}
}
