// Package cli contains the kdtool command line application.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"
)

const (
	configFlag    = "config"
	debugFlag     = "debug"
	printFlag     = "print"
	verboseFlag   = "verbose"
	pointFlag     = "point"
	boxFlag       = "box"
	inputFlag     = "input"
	regionsFlag   = "regions"
	positionFlag  = "position"
	directionFlag = "direction"
	levelFlag     = "level"
)

var app = &cli.App{
	Name:            "kdtool",
	Usage:           "build and query k-d tree decompositions of point clouds and AMR blocks",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		&cli.PathFlag{
			Name:     configFlag,
			Aliases:  []string{"c"},
			Required: true,
			Usage:    "load configuration from `FILE`",
		},
		&cli.BoolFlag{
			Name:    debugFlag,
			Aliases: []string{"vvv"},
			Usage:   "enable debug logging",
		},
	},
	Commands: []*cli.Command{
		{
			Name:  "build",
			Usage: "build the tree and summarize its regions",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  printFlag,
					Usage: "print the tree structure",
				},
				&cli.BoolFlag{
					Name:  verboseFlag,
					Usage: "print bounds and parents with the tree structure",
				},
			},
			Action: BuildAction,
		},
		{
			Name:      "locate",
			Usage:     "find the region containing a point",
			UsageText: "kdtool -c <config> locate --point x,y,z",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     pointFlag,
					Required: true,
					Usage:    "point as x,y,z",
				},
			},
			Action: LocateAction,
		},
		{
			Name:  "query-box",
			Usage: "list the regions overlapping an axis-aligned box",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     boxFlag,
					Required: true,
					Usage:    "box as xmin,xmax,ymin,ymax,zmin,zmax",
				},
			},
			Action: QueryBoxAction,
		},
		{
			Name:  "cell-lists",
			Usage: "count the cells of an input in each region",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     inputFlag,
					Required: true,
					Usage:    "name of the input",
				},
				&cli.StringFlag{
					Name:  regionsFlag,
					Usage: "comma separated region ids, all regions if unset",
				},
			},
			Action: CellListsAction,
		},
		{
			Name:  "view-order",
			Usage: "order regions front to back for a viewer",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  positionFlag,
					Usage: "viewer position as x,y,z",
				},
				&cli.StringFlag{
					Name:  directionFlag,
					Usage: "view direction as x,y,z",
				},
				&cli.StringFlag{
					Name:  regionsFlag,
					Usage: "comma separated region ids, all regions if unset",
				},
			},
			Action: ViewOrderAction,
		},
		{
			Name:  "level",
			Usage: "list the subtrees at a depth of the tree",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:     levelFlag,
					Required: true,
					Usage:    "depth, the root is 0",
				},
			},
			Action: LevelAction,
		},
	},
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	app.Writer = out
	app.ErrWriter = errOut
	return app
}
