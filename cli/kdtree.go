package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"

	"go.viam.com/spatialindex/config"
	"go.viam.com/spatialindex/kdtree"
	"go.viam.com/spatialindex/logging"
)

type session struct {
	cfg    *config.Config
	tree   *kdtree.Tree
	inputs []config.Input
	logger logging.Logger
}

func newLogger(c *cli.Context) logging.Logger {
	logger := logging.NewBlankLogger("kdtool")
	logger.AddAppender(logging.NewWriterAppender(c.App.ErrWriter))
	logger.SetLevel(logging.INFO)
	if c.Bool(debugFlag) {
		logger.SetLevel(logging.DEBUG)
	}
	return logger
}

// newSession reads the config, loads every input and builds the tree.
func newSession(c *cli.Context) (*session, error) {
	logger := newLogger(c)
	cfg, err := config.Read(c.Path(configFlag), logger)
	if err != nil {
		return nil, err
	}
	if !c.Bool(debugFlag) {
		logger.SetLevel(cfg.Level())
	}
	tree, inputs, err := cfg.NewTree(logger)
	if err != nil {
		return nil, err
	}
	if err := tree.BuildLocator(); err != nil {
		return nil, errors.Wrap(err, "could not build tree")
	}
	return &session{cfg: cfg, tree: tree, inputs: inputs, logger: logger}, nil
}

func (s *session) inputHandle(name string) (int, error) {
	_, idx, ok := lo.FindIndexOf(s.inputs, func(in config.Input) bool { return in.Name == name })
	if !ok {
		names := lo.Map(s.inputs, func(in config.Input, _ int) string { return in.Name })
		return -1, errors.Errorf("no input named %q, have %s", name, strings.Join(names, ", "))
	}
	return idx, nil
}

func newTable(c *cli.Context, header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(c.App.Writer)
	t.AppendHeader(header)
	return t
}

func joinIDs(ids []int) string {
	return strings.Join(lo.Map(ids, func(id, _ int) string { return strconv.Itoa(id) }), ",")
}

// BuildAction is the corresponding Action for 'build'.
func BuildAction(c *cli.Context) error {
	s, err := newSession(c)
	if err != nil {
		return err
	}
	t := newTable(c, table.Row{"Region", "Cells", "Bounds", "Data Bounds"})
	for r := 0; r < s.tree.NumberOfRegions(); r++ {
		n, err := s.tree.Region(r)
		if err != nil {
			return err
		}
		t.AppendRow(table.Row{r, n.CellCount(), n.Bounds().String(), n.DataBounds().String()})
	}
	t.AppendFooter(table.Row{"Total", s.tree.Root().CellCount(), "", ""})
	t.Render()
	printf(c.App.Writer, "built %d regions over %d inputs, depth %d",
		s.tree.NumberOfRegions(), len(s.inputs), s.tree.Level())

	switch {
	case c.Bool(verboseFlag):
		return s.tree.PrintVerboseTree(c.App.Writer)
	case c.Bool(printFlag):
		return s.tree.PrintTree(c.App.Writer)
	default:
		return nil
	}
}

// LocateAction is the corresponding Action for 'locate'.
func LocateAction(c *cli.Context) error {
	p, err := parseVector(c.String(pointFlag))
	if err != nil {
		return err
	}
	s, err := newSession(c)
	if err != nil {
		return err
	}
	r := s.tree.RegionContainingPoint(p)
	if r < 0 {
		bounds, err := s.tree.Bounds()
		if err != nil {
			return err
		}
		printf(c.App.Writer, "point %v is outside the tree %s", p, bounds)
		return nil
	}
	bounds, err := s.tree.RegionBounds(r)
	if err != nil {
		return err
	}
	printf(c.App.Writer, "point %v is in region %d %s", p, r, bounds)
	return nil
}

// QueryBoxAction is the corresponding Action for 'query-box'.
func QueryBoxAction(c *cli.Context) error {
	box, err := parseBox(c.String(boxFlag))
	if err != nil {
		return err
	}
	s, err := newSession(c)
	if err != nil {
		return err
	}
	ids := s.tree.RegionsIntersectingBox(box)
	printf(c.App.Writer, "%d regions intersect %s", len(ids), box)
	if len(ids) == 0 {
		return nil
	}
	t := newTable(c, table.Row{"Region", "Cells", "Bounds"})
	for _, r := range ids {
		n, err := s.tree.Region(r)
		if err != nil {
			return err
		}
		t.AppendRow(table.Row{r, n.CellCount(), n.Bounds().String()})
	}
	t.Render()
	return nil
}

// CellListsAction is the corresponding Action for 'cell-lists'.
func CellListsAction(c *cli.Context) error {
	regionIDs, err := parseRegionIDs(c.String(regionsFlag))
	if err != nil {
		return err
	}
	s, err := newSession(c)
	if err != nil {
		return err
	}
	handle, err := s.inputHandle(c.String(inputFlag))
	if err != nil {
		return err
	}
	if err := s.tree.CreateCellLists(handle, regionIDs); err != nil {
		return err
	}
	ids, err := s.tree.CellListRegionIDs(handle)
	if err != nil {
		return err
	}

	withBoundary := s.cfg.Tree.IncludeRegionBoundaryCells
	header := table.Row{"Region", "Cells"}
	if withBoundary {
		header = append(header, "Boundary Cells")
	}
	t := newTable(c, header)
	total := 0
	for _, r := range ids {
		list, err := s.tree.CellList(handle, r)
		if err != nil {
			return err
		}
		total += len(list)
		row := table.Row{r, len(list)}
		if withBoundary {
			boundary, err := s.tree.BoundaryCellList(handle, r)
			if err != nil {
				return err
			}
			row = append(row, len(boundary))
		}
		t.AppendRow(row)
	}
	t.Render()
	printf(c.App.Writer, "%d of %d cells of %q listed in %d regions",
		total, s.inputs[handle].Dataset.NumberOfCells(), s.inputs[handle].Name, len(ids))
	return nil
}

// ViewOrderAction is the corresponding Action for 'view-order'.
func ViewOrderAction(c *cli.Context) error {
	position, direction := c.String(positionFlag), c.String(directionFlag)
	if (position == "") == (direction == "") {
		return errors.Errorf("exactly one of --%s and --%s is required", positionFlag, directionFlag)
	}
	regionIDs, err := parseRegionIDs(c.String(regionsFlag))
	if err != nil {
		return err
	}
	s, err := newSession(c)
	if err != nil {
		return err
	}

	var order []int
	if position != "" {
		p, err := parseVector(position)
		if err != nil {
			return err
		}
		order, err = s.tree.ViewOrderRegionsFromPosition(p, regionIDs)
		if err != nil {
			return err
		}
	} else {
		d, err := parseVector(direction)
		if err != nil {
			return err
		}
		order, err = s.tree.ViewOrderRegionsInDirection(d, regionIDs)
		if err != nil {
			return err
		}
	}
	printf(c.App.Writer, "%s", joinIDs(order))
	return nil
}

// LevelAction is the corresponding Action for 'level'.
func LevelAction(c *cli.Context) error {
	s, err := newSession(c)
	if err != nil {
		return err
	}
	nodes, err := s.tree.RegionsAtLevel(c.Int(levelFlag))
	if err != nil {
		return err
	}
	t := newTable(c, table.Row{"#", "Regions", "Cells", "Bounds"})
	for i, n := range nodes {
		ids := kdtree.LeafRegionIDs(n)
		span := fmt.Sprintf("%d-%d", lo.Min(ids), lo.Max(ids))
		if len(ids) == 1 {
			span = strconv.Itoa(ids[0])
		}
		t.AppendRow(table.Row{i, span, n.CellCount(), n.Bounds().String()})
	}
	t.Render()
	return nil
}
