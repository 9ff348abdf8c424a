package cli

import (
	"strconv"

	"github.com/matzehuels/scopeview/pkg/render"
)

// Where a child of a scope is drawn.
const (
	placeCore       = "core"
	placeInExtract  = "in-extract"
	placeOutExtract = "out-extract"
	placeLibrary    = "library"
)

// scopeEntry is one real child of a built scope.
type scopeEntry struct {
	info  *render.NodeInfo
	place string
}

// scopeEntries lists the real children of info: core nodes first, in core
// graph order, then the extract columns. Bridge and structural nodes are
// left out; see [bridgeEntries].
func scopeEntries(g *render.GraphInfo, info *render.NodeInfo) []scopeEntry {
	if info == nil || info.Group == nil {
		return nil
	}
	var out []scopeEntry
	core := info.Group.CoreGraph
	for _, name := range core.Nodes() {
		ni, _ := core.Node(name)
		if ni == nil || ni.Structural || g.Node(name) == nil {
			continue
		}
		out = append(out, scopeEntry{info: ni, place: placeCore})
	}
	for _, ni := range info.Group.IsolatedInExtract {
		out = append(out, scopeEntry{info: ni, place: placeInExtract})
	}
	for _, ni := range info.Group.IsolatedOutExtract {
		out = append(out, scopeEntry{info: ni, place: placeOutExtract})
	}
	for _, ni := range info.Group.LibraryFunctionsExtract {
		out = append(out, scopeEntry{info: ni, place: placeLibrary})
	}
	return out
}

// bridgeEntries returns the bridge nodes of a built scope split by
// direction. Containers and structural padding are skipped.
func bridgeEntries(info *render.NodeInfo) (in, out []*render.NodeInfo) {
	if info == nil || info.Group == nil {
		return nil, nil
	}
	core := info.Group.CoreGraph
	for _, name := range core.Nodes() {
		ni, _ := core.Node(name)
		if ni == nil || ni.Structural || ni.Node.Bridge == nil || core.Parent(name) == "" {
			continue
		}
		if ni.Node.Bridge.Inbound {
			in = append(in, ni)
		} else {
			out = append(out, ni)
		}
	}
	return in, out
}

// entryKind describes a node for listings: its op type for ops, the node
// type and size for groups.
func entryKind(ni *render.NodeInfo) string {
	n := ni.Node
	if n.IsOp() {
		return n.Op.Op
	}
	if n.IsGroup() {
		return n.Type.String() + " (" + strconv.Itoa(n.Cardinality) + ")"
	}
	return n.Type.String()
}

// scopeLabel is the name shown for a scope, with the root spelled out.
func scopeLabel(g *render.GraphInfo, name string) string {
	if name == "" || name == g.Root().Name() {
		return "root"
	}
	return name
}
