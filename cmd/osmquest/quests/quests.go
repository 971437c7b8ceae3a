// Copyright 2025 the original author or authors.
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

// Package quests implements the commands reading and hiding quests.
package quests

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	humanize "github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"m4o.io/osmquest"
	"m4o.io/osmquest/cmd/osmquest/cli"
	"m4o.io/osmquest/mapdata"
	"m4o.io/osmquest/model"
)

var out io.Writer = os.Stdout

var (
	listBBox  model.BoundingBox
	countBBox model.BoundingBox
)

func init() {
	cli.RootCmd.AddCommand(listCmd, countCmd, hideCmd, unhideAllCmd)

	listCmd.Flags().Var(cli.NewBoundingBoxValue(cli.World, &listBBox, nil), "bbox", "area as left,bottom,right,top")
	listCmd.Flags().StringSliceP("type", "t", nil, "only list quests of these types")

	countCmd.Flags().Var(cli.NewBoundingBoxValue(cli.World, &countBBox, nil), "bbox", "area as left,bottom,right,top")

	unhideAllCmd.Flags().BoolP("quiet", "q", false, "do not show progress")
}

// withApp runs f with the application configured for cmd.
func withApp(cmd *cobra.Command, f func(ctx context.Context, app *cli.App) error) error {
	cfg, err := cli.Settings(cmd)
	if err != nil {
		return err
	}

	app, err := cli.Open(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	return f(cmd.Context(), app)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the quests of an area",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		types, err := cmd.Flags().GetStringSlice("type")
		if err != nil {
			return err
		}

		return withApp(cmd, func(ctx context.Context, app *cli.App) error {
			return runList(ctx, app.Controller, listBBox, types)
		})
	},
}

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Count the quests of an area",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, app *cli.App) error {
			return runCount(ctx, app.Controller, countBBox)
		})
	},
}

var hideCmd = &cobra.Command{
	Use:   "hide <quest id>...",
	Short: "Hide quests for good",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids := make([]model.QuestID, len(args))

		for i, arg := range args {
			id, err := strconv.ParseInt(arg, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid quest id %q: %w", arg, err)
			}

			ids[i] = model.QuestID(id)
		}

		return withApp(cmd, func(ctx context.Context, app *cli.App) error {
			return runHide(ctx, app.Controller, ids)
		})
	},
}

var unhideAllCmd = &cobra.Command{
	Use:   "unhide-all [<OSM file>]",
	Short: "Unhide every hidden quest",
	Long: "Unhide every hidden quest.  Hidden quests are restored if they still " +
		"apply to the map data of the given OSM PBF file; without a file none are.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		quiet, err := cmd.Flags().GetBool("quiet")
		if err != nil {
			return err
		}

		return withApp(cmd, func(ctx context.Context, app *cli.App) error {
			if len(args) == 1 {
				in, err := cli.OpenInput(args[0], quiet)
				if err != nil {
					return err
				}

				err = preload(ctx, app, in)
				if closeErr := in.Close(); err == nil {
					err = closeErr
				}

				if err != nil {
					return err
				}
			}

			return runUnhideAll(ctx, app.Controller)
		})
	},
}

func runList(ctx context.Context, ctrl *osmquest.Controller, bbox model.BoundingBox, types []string) error {
	quests, err := ctrl.GetAllVisible(ctx, bbox, types...)
	if err != nil {
		return err
	}

	for _, q := range quests {
		p := q.Position()
		fmt.Fprintf(out, "%d\t%s\t%s\t%s,%s\n", q.ID, q.TypeName, q.Key().ElementKey(),
			strconv.FormatFloat(float64(p.Lat), 'f', -1, 64),
			strconv.FormatFloat(float64(p.Lon), 'f', -1, 64))
	}

	return nil
}

func runCount(ctx context.Context, ctrl *osmquest.Controller, bbox model.BoundingBox) error {
	n, err := ctrl.Count(ctx, bbox)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s\n", humanize.Comma(int64(n)))

	return nil
}

func runHide(ctx context.Context, ctrl *osmquest.Controller, ids []model.QuestID) error {
	for _, id := range ids {
		q, ok, err := ctrl.Get(ctx, id)
		if err != nil {
			return err
		}

		if !ok {
			return fmt.Errorf("no quest %d", id)
		}

		if err := ctrl.Hide(ctx, q); err != nil {
			return err
		}

		fmt.Fprintf(out, "hid %d %s\n", id, q.Key())
	}

	return nil
}

func runUnhideAll(ctx context.Context, ctrl *osmquest.Controller) error {
	n, err := ctrl.UnhideAll(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "restored %s quests\n", humanize.Comma(int64(n)))

	return nil
}

// preload fills the map data source without reconciling quests.
func preload(ctx context.Context, app *cli.App, in io.Reader) error {
	data, err := mapdata.LoadPBF(ctx, in, osmquest.DefaultWorkers())
	if err != nil {
		return err
	}

	bbox, ok := data.BoundingBox()
	if !ok {
		return nil
	}

	return app.MapData.Replace(ctx, bbox, data)
}
