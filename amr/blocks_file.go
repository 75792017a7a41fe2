package amr

import (
	"os"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/yosuke-furukawa/json5/encoding/json5"
)

// BlocksFile is the on-disk description of a CTHData. It is JSON5, so comments and unquoted
// keys are allowed:
//
//	{
//	  dimensions: [5, 5, 5], // points per block
//	  blocks: [
//	    {origin: [0, 0, 0], spacing: [0.25, 0.25, 0.25]},
//	  ],
//	}
type BlocksFile struct {
	Dimensions [3]int       `json:"dimensions"`
	Blocks     []BlockEntry `json:"blocks"`
}

// BlockEntry describes one block.
type BlockEntry struct {
	Origin  [3]float64 `json:"origin"`
	Spacing [3]float64 `json:"spacing"`
}

func vec(a [3]float64) r3.Vector {
	return r3.Vector{X: a[0], Y: a[1], Z: a[2]}
}

// ParseBlocks decodes a JSON5 block description.
func ParseBlocks(data []byte) (*CTHData, error) {
	var f BlocksFile
	if err := json5.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "failed to decode block description")
	}
	cth, err := NewCTHData(f.Dimensions)
	if err != nil {
		return nil, err
	}
	for i, b := range f.Blocks {
		if _, err := cth.AddBlock(vec(b.Origin), vec(b.Spacing)); err != nil {
			return nil, errors.Wrapf(err, "block %d", i)
		}
	}
	return cth, nil
}

// ReadBlocksFile reads a JSON5 block description from disk.
func ReadBlocksFile(path string) (*CTHData, error) {
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read block description %q", path)
	}
	return ParseBlocks(data)
}

// ToBlocksFile describes c in the form ReadBlocksFile accepts.
func (c *CTHData) ToBlocksFile() BlocksFile {
	f := BlocksFile{Dimensions: c.dimensions, Blocks: make([]BlockEntry, len(c.origins))}
	for i := range c.origins {
		o, s := c.origins[i], c.spacings[i]
		f.Blocks[i] = BlockEntry{Origin: [3]float64{o.X, o.Y, o.Z}, Spacing: [3]float64{s.X, s.Y, s.Z}}
	}
	return f
}
