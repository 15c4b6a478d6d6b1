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
	"fmt"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/truckwatch-io/truckwatch/internal/truckhub/core/model"
	"github.com/truckwatch-io/truckwatch/internal/truckhub/fleet"
)

func newFleetCommand() *cobra.Command {
	var seedFile string

	cmd := &cobra.Command{
		Use:   "fleet",
		Short: "Print the fleet the hub starts with",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			seed, err := fleet.Load(seedFile)
			if err != nil {
				return err
			}
			trucks, err := seed.Models()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), fleetTable(trucks))
			return err
		},
	}
	cmd.Flags().StringVar(&seedFile, "seed-file", "", "YAML or JSON fleet seed. Empty prints the built-in fleet.")
	return cmd
}

func fleetTable(trucks []*model.Truck) *uitable.Table {
	table := uitable.New()
	table.MaxColWidth = 40
	table.AddRow("ID", "NAME", "OWNER", "FOOD", "STATUS", "RATING", "SCHEDULE")
	for _, t := range trucks {
		table.AddRow(t.ID, t.Name, t.OwnerID, t.FoodType, t.Status, fmt.Sprintf("%.1f", t.Rating), t.Schedule)
	}
	return table
}
