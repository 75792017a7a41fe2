package kdtree

import (
	"slices"
	"time"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/spatialindex/logging"
	"go.viam.com/spatialindex/spatialmath"
	"go.viam.com/spatialindex/utils"
)

const (
	// DefaultMaxLevel caps the depth of a new tree.
	DefaultMaxLevel = 20
	// DefaultMinCellsPerRegion stops subdivision of a new tree.
	DefaultMinCellsPerRegion = 100

	// Flat inputs are widened along their zero-extent axes by this fraction of the largest extent.
	degeneratePadFraction = 0.01
)

// Tree is a k-d tree over the cell centers of its registered data sets. A Tree is not safe for
// concurrent use, except that queries may run concurrently with each other while nothing
// modifies or rebuilds the tree.
type Tree struct {
	logger logging.Logger

	datasets         []Dataset
	datasetsModified uint64

	maxLevel             int
	minCellsPerRegion    int
	validAxes            spatialmath.AxisMask
	retainCellCenters    bool
	includeBoundaryCells bool
	paramsModified       uint64

	root          *Node
	regionList    []*Node
	level         int
	builtAt       uint64
	builtDatasets []uint64

	cellCenters        []r3.Vector
	cellCenterOffsets  []int
	cellCentersBuiltAt uint64
	cellCenterDatasets []uint64

	cellLists []*datasetCellLists
}

// NewTree returns an empty, unbuilt tree with the default parameters.
func NewTree(logger logging.Logger) *Tree {
	return &Tree{
		logger:            logger,
		maxLevel:          DefaultMaxLevel,
		minCellsPerRegion: DefaultMinCellsPerRegion,
		validAxes:         spatialmath.AllAxes,
		paramsModified:    utils.NextModifiedTime(),
		datasetsModified:  utils.NextModifiedTime(),
	}
}

func (t *Tree) datasetsChanged() {
	t.datasetsModified = utils.NextModifiedTime()
}

func (t *Tree) paramsChanged() {
	t.paramsModified = utils.NextModifiedTime()
}

// AddDataSet registers ds and returns its handle. Registering the same data set twice is a no-op.
func (t *Tree) AddDataSet(ds Dataset) int {
	if i := t.DataSetIndex(ds); i >= 0 {
		return i
	}
	t.datasets = append(t.datasets, ds)
	t.cellLists = append(t.cellLists, nil)
	t.datasetsChanged()
	return len(t.datasets) - 1
}

// SetDataSet replaces every registered data set with ds.
func (t *Tree) SetDataSet(ds Dataset) {
	t.RemoveAllDataSets()
	t.AddDataSet(ds)
}

// SetNthDataSet replaces the data set at handle, or appends when handle equals the current count.
func (t *Tree) SetNthDataSet(handle int, ds Dataset) error {
	switch {
	case handle == len(t.datasets):
		t.AddDataSet(ds)
		return nil
	case handle < 0 || handle > len(t.datasets):
		return NewDataSetError(handle, len(t.datasets))
	}
	t.datasets[handle] = ds
	t.cellLists[handle] = nil
	t.datasetsChanged()
	return nil
}

// RemoveDataSet unregisters the data set at handle. Later handles shift down by one and keep
// their cell lists.
func (t *Tree) RemoveDataSet(handle int) error {
	if handle < 0 || handle >= len(t.datasets) {
		return NewDataSetError(handle, len(t.datasets))
	}
	t.datasets = slices.Delete(t.datasets, handle, handle+1)
	t.cellLists = slices.Delete(t.cellLists, handle, handle+1)
	t.datasetsChanged()
	return nil
}

// RemoveDataSetByValue unregisters ds.
func (t *Tree) RemoveDataSetByValue(ds Dataset) error {
	i := t.DataSetIndex(ds)
	if i < 0 {
		return errors.New("data set is not registered")
	}
	return t.RemoveDataSet(i)
}

// RemoveAllDataSets unregisters every data set.
func (t *Tree) RemoveAllDataSets() {
	t.datasets = nil
	t.cellLists = nil
	t.datasetsChanged()
}

// NumberOfDataSets returns how many data sets are registered.
func (t *Tree) NumberOfDataSets() int {
	return len(t.datasets)
}

// DataSet returns the data set at handle.
func (t *Tree) DataSet(handle int) (Dataset, error) {
	if handle < 0 || handle >= len(t.datasets) {
		return nil, NewDataSetError(handle, len(t.datasets))
	}
	return t.datasets[handle], nil
}

// DataSetIndex returns the handle of ds or -1.
func (t *Tree) DataSetIndex(ds Dataset) int {
	for i, d := range t.datasets {
		if d == ds {
			return i
		}
	}
	return -1
}

// SetMaxLevel caps the depth of the tree.
func (t *Tree) SetMaxLevel(level int) {
	if level != t.maxLevel {
		t.maxLevel = level
		t.paramsChanged()
	}
}

// MaxLevel returns the depth cap.
func (t *Tree) MaxLevel() int {
	return t.maxLevel
}

// SetMinCellsPerRegion stops splitting regions that would produce children smaller than n.
// Zero disables the limit.
func (t *Tree) SetMinCellsPerRegion(n int) {
	if n != t.minCellsPerRegion {
		t.minCellsPerRegion = n
		t.paramsChanged()
	}
}

// MinCellsPerRegion returns the minimum region size.
func (t *Tree) MinCellsPerRegion() int {
	return t.minCellsPerRegion
}

// SetValidSplitAxes restricts the axes the tree may cut along.
func (t *Tree) SetValidSplitAxes(mask spatialmath.AxisMask) error {
	if mask&spatialmath.AllAxes == 0 {
		return errors.New("at least one split axis is required")
	}
	mask &= spatialmath.AllAxes
	if mask != t.validAxes {
		t.validAxes = mask
		t.paramsChanged()
	}
	return nil
}

// ValidSplitAxes returns the axes the tree may cut along.
func (t *Tree) ValidSplitAxes() spatialmath.AxisMask {
	return t.validAxes
}

func (t *Tree) omit(mask spatialmath.AxisMask) {
	//nolint:errcheck
	t.SetValidSplitAxes(spatialmath.AllAxes &^ mask)
}

// OmitXPartitioning makes every region span the full x range: the tree cuts shafts along x.
func (t *Tree) OmitXPartitioning() { t.omit(spatialmath.XMask) }

// OmitYPartitioning stops cuts along y.
func (t *Tree) OmitYPartitioning() { t.omit(spatialmath.YMask) }

// OmitZPartitioning stops cuts along z.
func (t *Tree) OmitZPartitioning() { t.omit(spatialmath.ZMask) }

// OmitXYPartitioning leaves only z cuts, producing slabs.
func (t *Tree) OmitXYPartitioning() { t.omit(spatialmath.XMask | spatialmath.YMask) }

// OmitYZPartitioning leaves only x cuts.
func (t *Tree) OmitYZPartitioning() { t.omit(spatialmath.YMask | spatialmath.ZMask) }

// OmitZXPartitioning leaves only y cuts.
func (t *Tree) OmitZXPartitioning() { t.omit(spatialmath.ZMask | spatialmath.XMask) }

// OmitNoPartitioning allows cuts along every axis again.
func (t *Tree) OmitNoPartitioning() { t.omit(0) }

// SetRetainCellCenters keeps the cell center cache after a build so cell lists and cell queries
// do not have to recompute centers.
func (t *Tree) SetRetainCellCenters(retain bool) {
	t.retainCellCenters = retain
	if !retain {
		t.cellCenters = nil
		t.cellCenterOffsets = nil
		t.cellCenterDatasets = nil
	}
}

// SetIncludeRegionBoundaryCells makes CreateCellLists also collect, per region, the cells that
// reach into the region without having their center in it.
func (t *Tree) SetIncludeRegionBoundaryCells(include bool) {
	if include != t.includeBoundaryCells {
		t.includeBoundaryCells = include
		for i := range t.cellLists {
			t.cellLists[i] = nil
		}
	}
}

// Built reports whether the tree has a current search structure.
func (t *Tree) Built() bool {
	return t.root != nil
}

// datasetStamps records the modification time of every registered data set. Data sets keep their
// own clocks, so stamps are only ever compared for equality.
func (t *Tree) datasetStamps() []uint64 {
	return lo.Map(t.datasets, func(ds Dataset, _ int) uint64 { return ds.ModifiedTime() })
}

func (t *Tree) datasetsUnchangedSince(stamps []uint64) bool {
	if len(stamps) != len(t.datasets) {
		return false
	}
	for i, ds := range t.datasets {
		if ds.ModifiedTime() != stamps[i] {
			return false
		}
	}
	return true
}

func (t *Tree) needsRebuild() bool {
	if t.root == nil || t.paramsModified > t.builtAt || t.datasetsModified > t.builtAt {
		return true
	}
	return !t.datasetsUnchangedSince(t.builtDatasets)
}

func (t *Tree) cellCentersCurrent() bool {
	if t.cellCenters == nil || t.datasetsModified > t.cellCentersBuiltAt {
		return false
	}
	return t.datasetsUnchangedSince(t.cellCenterDatasets)
}

// workingCenters returns the slice the build partitions in place. A retained cache is copied so it
// stays in data set order.
func (t *Tree) workingCenters(centers []r3.Vector) []r3.Vector {
	if t.retainCellCenters {
		return slices.Clone(centers)
	}
	return centers
}

// BuildLocator builds the tree. It does nothing when neither the parameters nor any data set
// changed since the last successful build. On error the previous tree is left in place.
func (t *Tree) BuildLocator() error {
	if !t.needsRebuild() {
		return nil
	}
	start := time.Now()
	if err := t.buildLocator(); err != nil {
		instrumentBuild(buildResultError, start)
		t.logger.Errorw("failed to build k-d tree", "error", err)
		return err
	}
	instrumentBuild(buildResultOK, start)
	instrumentRegions(len(t.regionList))
	t.logger.Debugw("built k-d tree",
		"datasets", len(t.datasets),
		"cells", t.root.cellCount,
		"regions", len(t.regionList),
		"level", t.level,
		"duration", time.Since(start))
	return nil
}

func (t *Tree) buildLocator() error {
	if len(t.datasets) == 0 {
		return ErrNoDataSets
	}
	stamps := t.datasetStamps()
	total := 0
	bounds := spatialmath.EmptyBounds()
	for _, ds := range t.datasets {
		if n := ds.NumberOfCells(); n > 0 {
			total += n
			bounds = bounds.Union(ds.Bounds())
		}
	}
	if total == 0 {
		return ErrNoCells
	}

	padded, err := bounds.PadDegenerate(degeneratePadFraction)
	if err != nil {
		return errors.Wrap(err, "cannot subdivide volume")
	}
	if padded != bounds {
		t.logger.Warnw("padded degenerate volume", "bounds", bounds.String(), "padded", padded.String())
	}

	centers, offsets := t.cellCenters, t.cellCenterOffsets
	reused := t.cellCentersCurrent()
	if !reused {
		centers, offsets = computeCellCenters(t.datasets, total)
	}
	centersAt := utils.NextModifiedTime()

	work := t.workingCenters(centers)
	root := NewNode()
	root.SetSpatialBounds(padded)
	root.dataBounds = padded
	root.SetCellCount(total)
	t.divideRegion(root, work, t.maxLevel)

	t.clearCellLists()
	t.root = root
	t.level = root.depth()
	t.regionList = assignRegionIDs(root)
	if t.retainCellCenters {
		t.cellCenters, t.cellCenterOffsets = centers, offsets
		if !reused {
			t.cellCentersBuiltAt = centersAt
			t.cellCenterDatasets = stamps
		}
	} else {
		t.cellCenters, t.cellCenterOffsets, t.cellCenterDatasets = nil, nil, nil
	}
	t.builtAt = utils.NextModifiedTime()
	t.builtDatasets = stamps
	return nil
}

// divideRegion splits node in two along its widest permitted data axis and recurses. points holds
// exactly the centers inside node and is reordered so the left child's centers come first.
func (t *Tree) divideRegion(node *Node, points []r3.Vector, levels int) {
	n := node.cellCount
	if levels <= 0 || n < 2 || (t.minCellsPerRegion > 0 && t.minCellsPerRegion > n/2) {
		return
	}

	axis := t.chooseAxis(node.dataBounds)
	k, split := Select(axis, points)

	left, right := NewNode(), NewNode()
	left.SetSpatialBounds(node.spatialBounds.WithMax(axis, split))
	left.SetCellCount(k)
	right.SetSpatialBounds(node.spatialBounds.WithMin(axis, split))
	right.SetCellCount(n - k)

	node.SetCutAxis(axis)
	node.AddChildNodes(left, right)
	left.SetDataBoundsFromPoints(points[:k])
	right.SetDataBoundsFromPoints(points[k:])

	t.divideRegion(left, points[:k], levels-1)
	t.divideRegion(right, points[k:], levels-1)
}

func (t *Tree) chooseAxis(dataBounds spatialmath.Bounds) spatialmath.Axis {
	if a, ok := t.validAxes.Only(); ok {
		return a
	}
	best, bestExtent := spatialmath.XAxis, -1.0
	for _, a := range spatialmath.Axes {
		if !t.validAxes.Has(a) {
			continue
		}
		if e := dataBounds.Extent(a); e > bestExtent {
			best, bestExtent = a, e
		}
	}
	return best
}

// assignRegionIDs numbers the leaves left to right and returns them indexed by id.
func assignRegionIDs(root *Node) []*Node {
	var regions []*Node
	var walk func(n *Node)
	walk = func(n *Node) {
		if n.IsLeaf() {
			n.regionID = len(regions)
			regions = append(regions, n)
			return
		}
		n.regionID = -1
		walk(n.left)
		walk(n.right)
	}
	walk(root)
	return regions
}

// FreeSearchStructure drops the tree, its cell lists and any cached cell centers. Data set
// registrations and parameters are kept.
func (t *Tree) FreeSearchStructure() {
	t.root = nil
	t.regionList = nil
	t.level = 0
	t.builtAt = 0
	t.builtDatasets = nil
	t.cellCenters = nil
	t.cellCenterOffsets = nil
	t.cellCentersBuiltAt = 0
	t.cellCenterDatasets = nil
	t.clearCellLists()
}

// Level returns the depth of the deepest leaf. A tree with a single region has level 0.
func (t *Tree) Level() int {
	return t.level
}

// NumberOfRegions returns the number of leaves, zero before a build.
func (t *Tree) NumberOfRegions() int {
	return len(t.regionList)
}

// Root returns the root node, nil before a build. The nodes must not be modified.
func (t *Tree) Root() *Node {
	return t.root
}

// CopyTree returns a deep copy of the node structure that shares nothing with the tree.
func (t *Tree) CopyTree() *Node {
	if t.root == nil {
		return nil
	}
	return t.root.copyTree()
}
