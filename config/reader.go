package config

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/a8m/envsubst"
	"github.com/pkg/errors"

	"go.viam.com/spatialindex/amr"
	"go.viam.com/spatialindex/kdtree"
	"go.viam.com/spatialindex/logging"
	"go.viam.com/spatialindex/pointcloud"
	rutils "go.viam.com/spatialindex/utils"
)

// Read reads a config from the given file. Environment variables in the file are expanded
// before decoding.
func Read(filePath string, logger logging.Logger) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	return FromReader(filePath, bytes.NewReader(buf), logger)
}

// FromReader reads a config from the given reader and specifies
// where, if applicable, the file the reader originated from.
func FromReader(originalPath string, r io.Reader, logger logging.Logger) (*Config, error) {
	cfg := Config{ConfigFilePath: originalPath}
	if err := json.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode Config from json")
	}
	if err := cfg.Validate(); err != nil {
		logger.Errorw("invalid config", "path", originalPath, "error", err)
		return nil, errors.Wrap(err, "failed to validate Config")
	}
	return &cfg, nil
}

// Input is a loaded data set along with the name it was configured under.
type Input struct {
	Name    string
	Type    InputType
	Dataset kdtree.Dataset
}

// LoadInput reads one data set. A relative path is resolved against the config file.
func (c *Config) LoadInput(ic InputConfig, logger logging.Logger) (Input, error) {
	path := rutils.ResolveRelative(c.ConfigFilePath, ic.Path)
	var (
		ds  kdtree.Dataset
		err error
	)
	switch ic.Type {
	case InputTypePCD:
		ds, err = pointcloud.NewFromPCDFile(path)
	case InputTypeLAS:
		ds, err = pointcloud.NewFromLASFile(path, logger)
	case InputTypeAMR:
		ds, err = amr.ReadBlocksFile(path)
	default:
		err = rutils.NewUnsupportedFileTypeError(path, string(ic.Type))
	}
	if err != nil {
		return Input{}, errors.Wrapf(err, "failed to load input %q", ic.Name)
	}
	logger.Debugw("loaded input", "name", ic.Name, "type", ic.Type, "cells", ds.NumberOfCells())
	return Input{Name: ic.Name, Type: ic.Type, Dataset: ds}, nil
}

// NewTree loads every input and returns a tree over them, configured but not yet built. The
// data set handle of each input is its index in the returned slice.
func (c *Config) NewTree(logger logging.Logger) (*kdtree.Tree, []Input, error) {
	tree := kdtree.NewTree(logger.Sublogger("kdtree"))
	if err := c.Tree.Apply(tree); err != nil {
		return nil, nil, err
	}
	inputs := make([]Input, 0, len(c.Inputs))
	for _, ic := range c.Inputs {
		in, err := c.LoadInput(ic, logger)
		if err != nil {
			return nil, nil, err
		}
		tree.AddDataSet(in.Dataset)
		inputs = append(inputs, in)
	}
	return tree, inputs, nil
}
