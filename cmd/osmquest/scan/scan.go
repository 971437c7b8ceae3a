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

// Package scan implements the scan command.
package scan

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	humanize "github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"m4o.io/osmquest"
	"m4o.io/osmquest/cmd/osmquest/cli"
	"m4o.io/osmquest/mapdata"
	"m4o.io/osmquest/model"
)

var out io.Writer = os.Stdout

// summary describes the outcome of a scan.
type summary struct {
	BoundingBox   model.BoundingBox
	NodeCount     int64
	WayCount      int64
	RelationCount int64
	Added         int
	Deleted       int
}

// tally counts the quests added and deleted while scanning.
type tally struct {
	mu      sync.Mutex
	added   int
	deleted int
}

func (t *tally) OnUpdated(added []model.Quest, deleted []model.QuestID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.added += len(added)
	t.deleted += len(deleted)
}

var bbox model.BoundingBox

var bboxGiven bool

func init() {
	cli.RootCmd.AddCommand(scanCmd)

	flags := scanCmd.Flags()
	flags.Var(cli.NewBoundingBoxValue(cli.World, &bbox, &bboxGiven), "bbox",
		"area to replace as left,bottom,right,top (default: the bounds of the file)")
	flags.BoolP("quiet", "q", false, "do not show progress")
}

var scanCmd = &cobra.Command{
	Use:   "scan <OSM file>",
	Short: "Replace the quests of an area with those of an OSM PBF file",
	Long: "Read an OSM PBF file and reconcile the quests within its bounds, " +
		"or within --bbox, with the quests its data calls for.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cli.Settings(cmd)
		if err != nil {
			return err
		}

		quiet, err := cmd.Flags().GetBool("quiet")
		if err != nil {
			return err
		}

		ctx := cmd.Context()

		app, err := cli.Open(ctx, cfg)
		if err != nil {
			return err
		}
		defer app.Close()

		in, err := cli.OpenInput(args[0], quiet)
		if err != nil {
			return err
		}

		var area *model.BoundingBox
		if bboxGiven {
			area = &bbox
		}

		s, err := runScan(ctx, app, in, cfg.Workers, area)
		if closeErr := in.Close(); err == nil {
			err = closeErr
		}

		if err != nil {
			return err
		}

		renderTxt(s)

		return nil
	},
}

// runScan loads a PBF stream and replaces the map data, and with it the
// quests, of area.  Without an area the bounds of the data are used.
func runScan(ctx context.Context, app *cli.App, in io.Reader, workers uint16, area *model.BoundingBox) (*summary, error) {
	if workers == 0 {
		workers = osmquest.DefaultWorkers()
	}

	data, err := mapdata.LoadPBF(ctx, in, workers)
	if err != nil {
		return nil, err
	}

	s := &summary{}
	s.NodeCount, s.WayCount, s.RelationCount = mapdata.Count(data)

	switch {
	case area != nil:
		s.BoundingBox = *area
	default:
		b, ok := data.BoundingBox()
		if !ok {
			return nil, fmt.Errorf("the file declares no bounds and has no geometry; use --bbox")
		}

		s.BoundingBox = b
	}

	t := &tally{}
	app.Controller.AddListener(t)
	defer app.Controller.RemoveListener(t)

	listener := app.Controller.MapDataListener()
	app.MapData.AddListener(listener)
	defer app.MapData.RemoveListener(listener)

	if err := app.MapData.Replace(ctx, s.BoundingBox, data); err != nil {
		return nil, err
	}

	t.mu.Lock()
	s.Added, s.Deleted = t.added, t.deleted
	t.mu.Unlock()

	return s, nil
}

func renderTxt(s *summary) {
	fmt.Fprintf(out, "BoundingBox: %s\n", s.BoundingBox)
	fmt.Fprintf(out, "NodeCount: %s\n", humanize.Comma(s.NodeCount))
	fmt.Fprintf(out, "WayCount: %s\n", humanize.Comma(s.WayCount))
	fmt.Fprintf(out, "RelationCount: %s\n", humanize.Comma(s.RelationCount))
	fmt.Fprintf(out, "QuestsAdded: %s\n", humanize.Comma(int64(s.Added)))
	fmt.Fprintf(out, "QuestsDeleted: %s\n", humanize.Comma(int64(s.Deleted)))
}
