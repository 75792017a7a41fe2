// Package config defines the structures to configure a k-d tree and the data sets it indexes.
package config

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"go.viam.com/spatialindex/kdtree"
	"go.viam.com/spatialindex/logging"
	"go.viam.com/spatialindex/spatialmath"
)

// InputType names a reader for an input file.
type InputType string

// The supported input types.
const (
	InputTypePCD InputType = "pcd"
	InputTypeLAS InputType = "las"
	InputTypeAMR InputType = "amr"
)

var inputTypes = []InputType{InputTypePCD, InputTypeLAS, InputTypeAMR}

// Config describes a tree and its inputs.
type Config struct {
	ConfigFilePath string `json:"-"`

	Tree     TreeConfig    `json:"tree"`
	Inputs   []InputConfig `json:"inputs"`
	LogLevel string        `json:"log_level,omitempty"`
}

// TreeConfig holds the build parameters of a tree. Unset numbers keep the tree defaults.
type TreeConfig struct {
	MaxLevel                   *int   `json:"max_level,omitempty"`
	MinCellsPerRegion          *int   `json:"min_cells_per_region,omitempty"`
	SplitAxes                  string `json:"split_axes,omitempty"`
	RetainCellCenters          bool   `json:"retain_cell_centers,omitempty"`
	IncludeRegionBoundaryCells bool   `json:"include_region_boundary_cells,omitempty"`
}

// InputConfig names one data set file.
type InputConfig struct {
	Name string    `json:"name"`
	Type InputType `json:"type"`
	Path string    `json:"path"`
}

// Validate checks every section and returns all problems found.
func (c *Config) Validate() error {
	var err error
	err = multierr.Append(err, c.Tree.Validate("tree"))
	for idx, in := range c.Inputs {
		err = multierr.Append(err, in.Validate(fmt.Sprintf("inputs.%d", idx)))
	}
	names := lo.FilterMap(c.Inputs, func(in InputConfig, _ int) (string, bool) { return in.Name, in.Name != "" })
	for _, dup := range lo.FindDuplicates(names) {
		err = multierr.Append(err, utils.NewConfigValidationError("inputs", errors.Errorf("duplicate input name %q", dup)))
	}
	if c.LogLevel != "" {
		if _, lerr := logging.LevelFromString(c.LogLevel); lerr != nil {
			err = multierr.Append(err, utils.NewConfigValidationError("log_level", lerr))
		}
	}
	return err
}

// Level returns the configured log level, INFO if unset.
func (c *Config) Level() logging.Level {
	if c.LogLevel == "" {
		return logging.INFO
	}
	level, err := logging.LevelFromString(c.LogLevel)
	if err != nil {
		return logging.INFO
	}
	return level
}

// Validate ensures all parts of the config are valid.
func (tc *TreeConfig) Validate(path string) error {
	if tc.MaxLevel != nil && *tc.MaxLevel < 0 {
		return utils.NewConfigValidationError(path, errors.Errorf("max_level must not be negative, got %d", *tc.MaxLevel))
	}
	if tc.MinCellsPerRegion != nil && *tc.MinCellsPerRegion < 0 {
		return utils.NewConfigValidationError(path,
			errors.Errorf("min_cells_per_region must not be negative, got %d", *tc.MinCellsPerRegion))
	}
	if tc.SplitAxes != "" {
		if _, err := spatialmath.ParseAxisMask(tc.SplitAxes); err != nil {
			return utils.NewConfigValidationError(path, errors.Wrap(err, "invalid split_axes"))
		}
	}
	return nil
}

// Apply sets the configured parameters on a tree.
func (tc *TreeConfig) Apply(tree *kdtree.Tree) error {
	if err := tc.Validate("tree"); err != nil {
		return err
	}
	if tc.MaxLevel != nil {
		tree.SetMaxLevel(*tc.MaxLevel)
	}
	if tc.MinCellsPerRegion != nil {
		tree.SetMinCellsPerRegion(*tc.MinCellsPerRegion)
	}
	if tc.SplitAxes != "" {
		mask, err := spatialmath.ParseAxisMask(tc.SplitAxes)
		if err != nil {
			return err
		}
		if err := tree.SetValidSplitAxes(mask); err != nil {
			return err
		}
	}
	tree.SetRetainCellCenters(tc.RetainCellCenters)
	tree.SetIncludeRegionBoundaryCells(tc.IncludeRegionBoundaryCells)
	return nil
}

// Validate ensures all parts of the config are valid.
func (ic *InputConfig) Validate(path string) error {
	if ic.Name == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "name")
	}
	if ic.Type == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "type")
	}
	if !lo.Contains(inputTypes, ic.Type) {
		return utils.NewConfigValidationError(path, errors.Errorf("unknown input type %q", ic.Type))
	}
	if ic.Path == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "path")
	}
	return nil
}
