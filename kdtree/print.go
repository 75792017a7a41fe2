package kdtree

import (
	"fmt"
	"io"
	"strings"
)

// PrintNode writes a one-line summary of n indented by depth.
func (n *Node) PrintNode(w io.Writer, depth int) error {
	indent := strings.Repeat("  ", depth)
	var err error
	if n.IsLeaf() {
		_, err = fmt.Fprintf(w, "%sregion %d: %d cells in %s\n", indent, n.regionID, n.cellCount, n.spatialBounds)
	} else {
		_, err = fmt.Fprintf(w, "%scut %s at %g: %d cells in %s\n",
			indent, n.cutAxis, n.CutPosition(), n.cellCount, n.spatialBounds)
	}
	return err
}

// PrintVerboseNode writes every field of n, one per line, indented by depth.
func (n *Node) PrintVerboseNode(w io.Writer, depth int) error {
	indent := strings.Repeat("  ", depth)
	up := "none"
	if n.up != nil {
		up = fmt.Sprintf("cut %s", n.up.cutAxis)
	}
	cut := "-"
	if !n.IsLeaf() {
		cut = fmt.Sprintf("%s at %g", n.cutAxis, n.CutPosition())
	}
	_, err := fmt.Fprintf(w,
		"%sregion id: %d\n%s  cells: %d\n%s  bounds: %s\n%s  data bounds: %s\n%s  cut: %s\n%s  parent: %s\n",
		indent, n.regionID,
		indent, n.cellCount,
		indent, n.spatialBounds,
		indent, n.dataBounds,
		indent, cut,
		indent, up)
	return err
}

// PrintTree writes one line per node, children indented under their parent.
func (t *Tree) PrintTree(w io.Writer) error {
	return t.printTree(w, (*Node).PrintNode)
}

// PrintVerboseTree writes every field of every node.
func (t *Tree) PrintVerboseTree(w io.Writer) error {
	return t.printTree(w, (*Node).PrintVerboseNode)
}

func (t *Tree) printTree(w io.Writer, print func(*Node, io.Writer, int) error) error {
	if t.root == nil {
		return ErrNotBuilt
	}
	var walk func(n *Node, depth int) error
	walk = func(n *Node, depth int) error {
		if err := print(n, w, depth); err != nil {
			return err
		}
		if n.IsLeaf() {
			return nil
		}
		if err := walk(n.left, depth+1); err != nil {
			return err
		}
		return walk(n.right, depth+1)
	}
	return walk(t.root, 0)
}
