// Package amr holds block-structured adaptive mesh refinement data: many uniform grid blocks of
// the same dimensions, each with its own origin and spacing.
package amr

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/spatialindex/spatialmath"
	"go.viam.com/spatialindex/utils"
)

// CTHData is a collection of uniform grid blocks sharing one set of point dimensions. Cells are
// numbered block by block: global id = block*CellsPerBlock() + local id, with local ids running
// x fastest, then y, then z.
type CTHData struct {
	dimensions [3]int
	origins    []r3.Vector
	spacings   []r3.Vector
	mtime      uint64
}

// NewCTHData returns an empty container whose blocks will have the given number of points along
// each axis.
func NewCTHData(dimensions [3]int) (*CTHData, error) {
	if err := validateDimensions(dimensions); err != nil {
		return nil, err
	}
	return &CTHData{dimensions: dimensions, mtime: utils.NextModifiedTime()}, nil
}

func validateDimensions(d [3]int) error {
	for i, v := range d {
		if v < 1 {
			return errors.Errorf("block dimension %d must be at least 1, got %d", i, v)
		}
	}
	return nil
}

func (c *CTHData) modified() {
	c.mtime = utils.NextModifiedTime()
}

// SetDimensions changes the point dimensions of every block.
func (c *CTHData) SetDimensions(dimensions [3]int) error {
	if err := validateDimensions(dimensions); err != nil {
		return err
	}
	if dimensions != c.dimensions {
		c.dimensions = dimensions
		c.modified()
	}
	return nil
}

// Dimensions returns the point counts along x, y and z.
func (c *CTHData) Dimensions() [3]int {
	return c.dimensions
}

// CellDimensions returns the cell counts along x, y and z. An axis with one point still holds one
// layer of flat cells.
func (c *CTHData) CellDimensions() [3]int {
	var out [3]int
	for i, d := range c.dimensions {
		out[i] = max(d-1, 1)
	}
	return out
}

// AddBlock appends a block and returns its id.
func (c *CTHData) AddBlock(origin, spacing r3.Vector) (int, error) {
	if spacing.X < 0 || spacing.Y < 0 || spacing.Z < 0 {
		return -1, errors.Errorf("block spacing %v must not be negative", spacing)
	}
	c.origins = append(c.origins, origin)
	c.spacings = append(c.spacings, spacing)
	c.modified()
	return len(c.origins) - 1, nil
}

// SetBlock replaces the origin and spacing of an existing block.
func (c *CTHData) SetBlock(block int, origin, spacing r3.Vector) error {
	if err := c.checkBlock(block); err != nil {
		return err
	}
	if spacing.X < 0 || spacing.Y < 0 || spacing.Z < 0 {
		return errors.Errorf("block spacing %v must not be negative", spacing)
	}
	c.origins[block] = origin
	c.spacings[block] = spacing
	c.modified()
	return nil
}

// Initialize removes every block.
func (c *CTHData) Initialize() {
	c.origins = nil
	c.spacings = nil
	c.modified()
}

// NumberOfBlocks returns the number of blocks.
func (c *CTHData) NumberOfBlocks() int {
	return len(c.origins)
}

func (c *CTHData) checkBlock(block int) error {
	if block < 0 || block >= len(c.origins) {
		return errors.Errorf("invalid block id %d, have %d blocks", block, len(c.origins))
	}
	return nil
}

// BlockOrigin returns the position of the first point of a block.
func (c *CTHData) BlockOrigin(block int) (r3.Vector, error) {
	if err := c.checkBlock(block); err != nil {
		return r3.Vector{}, err
	}
	return c.origins[block], nil
}

// BlockSpacing returns the distance between neighboring points of a block.
func (c *CTHData) BlockSpacing(block int) (r3.Vector, error) {
	if err := c.checkBlock(block); err != nil {
		return r3.Vector{}, err
	}
	return c.spacings[block], nil
}

// BlockBounds returns the extent of a block.
func (c *CTHData) BlockBounds(block int) (spatialmath.Bounds, error) {
	if err := c.checkBlock(block); err != nil {
		return spatialmath.EmptyBounds(), err
	}
	return c.blockBounds(block), nil
}

func (c *CTHData) blockBounds(block int) spatialmath.Bounds {
	o, s := c.origins[block], c.spacings[block]
	span := r3.Vector{
		X: float64(c.dimensions[0]-1) * s.X,
		Y: float64(c.dimensions[1]-1) * s.Y,
		Z: float64(c.dimensions[2]-1) * s.Z,
	}
	return spatialmath.Bounds{Min: o, Max: o.Add(span)}
}

// CellsPerBlock returns the number of cells in every block.
func (c *CTHData) CellsPerBlock() int {
	d := c.CellDimensions()
	return d[0] * d[1] * d[2]
}

// PointsPerBlock returns the number of points in every block.
func (c *CTHData) PointsPerBlock() int {
	return c.dimensions[0] * c.dimensions[1] * c.dimensions[2]
}

// NumberOfCells returns the number of cells across all blocks.
func (c *CTHData) NumberOfCells() int {
	return c.CellsPerBlock() * len(c.origins)
}

// NumberOfPoints returns the number of points across all blocks. Points on shared block faces
// are counted once per block.
func (c *CTHData) NumberOfPoints() int {
	return c.PointsPerBlock() * len(c.origins)
}

// CellBlock splits a global cell id into its block and local id.
func (c *CTHData) CellBlock(cellID int) (block, local int, err error) {
	if cellID < 0 || cellID >= c.NumberOfCells() {
		return -1, -1, errors.Errorf("invalid cell id %d, have %d cells", cellID, c.NumberOfCells())
	}
	per := c.CellsPerBlock()
	return cellID / per, cellID % per, nil
}

// CellIJK returns the grid position of a local cell id inside its block.
func (c *CTHData) CellIJK(local int) [3]int {
	d := c.CellDimensions()
	return [3]int{local % d[0], (local / d[0]) % d[1], local / (d[0] * d[1])}
}

// PointIJK returns the grid position of a local point id inside its block.
func (c *CTHData) PointIJK(local int) [3]int {
	d := c.dimensions
	return [3]int{local % d[0], (local / d[0]) % d[1], local / (d[0] * d[1])}
}

// Point returns the position of a global point id.
func (c *CTHData) Point(pointID int) (r3.Vector, error) {
	per := c.PointsPerBlock()
	if pointID < 0 || pointID >= c.NumberOfPoints() {
		return r3.Vector{}, errors.Errorf("invalid point id %d, have %d points", pointID, c.NumberOfPoints())
	}
	block, ijk := pointID/per, c.PointIJK(pointID%per)
	o, s := c.origins[block], c.spacings[block]
	return r3.Vector{
		X: o.X + float64(ijk[0])*s.X,
		Y: o.Y + float64(ijk[1])*s.Y,
		Z: o.Z + float64(ijk[2])*s.Z,
	}, nil
}

// cellOffset is where the center of cell index i lies along an axis with dim points.
func cellOffset(i, dim int) float64 {
	if dim <= 1 {
		return 0
	}
	return float64(i) + 0.5
}

// CellCenter returns the centroid of a global cell id. The id must be valid.
func (c *CTHData) CellCenter(cellID int) r3.Vector {
	per := c.CellsPerBlock()
	block, ijk := cellID/per, c.CellIJK(cellID%per)
	o, s := c.origins[block], c.spacings[block]
	return r3.Vector{
		X: o.X + cellOffset(ijk[0], c.dimensions[0])*s.X,
		Y: o.Y + cellOffset(ijk[1], c.dimensions[1])*s.Y,
		Z: o.Z + cellOffset(ijk[2], c.dimensions[2])*s.Z,
	}
}

// CellBounds returns the extent of a global cell id. The id must be valid.
func (c *CTHData) CellBounds(cellID int) spatialmath.Bounds {
	per := c.CellsPerBlock()
	block, ijk := cellID/per, c.CellIJK(cellID%per)
	o, s := c.origins[block], c.spacings[block]
	lo := o
	hi := o
	for _, a := range spatialmath.Axes {
		i := ijk[a]
		if c.dimensions[a] <= 1 {
			continue
		}
		lo = a.With(lo, a.Of(o)+float64(i)*a.Of(s))
		hi = a.With(hi, a.Of(o)+float64(i+1)*a.Of(s))
	}
	return spatialmath.Bounds{Min: lo, Max: hi}
}

// Bounds returns the union of every block's extent.
func (c *CTHData) Bounds() spatialmath.Bounds {
	b := spatialmath.EmptyBounds()
	for i := range c.origins {
		b = b.Union(c.blockBounds(i))
	}
	return b
}

// ModifiedTime changes whenever blocks or dimensions change.
func (c *CTHData) ModifiedTime() uint64 {
	return c.mtime
}

// DeepCopy returns an independent copy.
func (c *CTHData) DeepCopy() *CTHData {
	return &CTHData{
		dimensions: c.dimensions,
		origins:    append([]r3.Vector(nil), c.origins...),
		spacings:   append([]r3.Vector(nil), c.spacings...),
		mtime:      utils.NextModifiedTime(),
	}
}
