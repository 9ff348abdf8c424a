package hierarchy

import "slices"

// Stats holds the execution statistics of a node. For groups they are the
// aggregate of every op below.
type Stats struct {
	TotalBytes  int64
	StartMicros int64
	EndMicros   int64
	OutputSize  [][]int64

	hasTime bool
}

// NewStats creates empty stats for a node with the given output sizes.
func NewStats(outputSize [][]int64) *Stats {
	return &Stats{OutputSize: outputSize}
}

// AddExecutionTime widens the execution window to cover [start, end].
func (s *Stats) AddExecutionTime(start, end int64) {
	if !s.hasTime {
		s.StartMicros, s.EndMicros, s.hasTime = start, end, true
		return
	}
	s.StartMicros = min(s.StartMicros, start)
	s.EndMicros = max(s.EndMicros, end)
}

// AddBytesAllocation keeps the largest allocation seen for one kernel run.
func (s *Stats) AddBytesAllocation(bytes int64) {
	s.TotalBytes = max(s.TotalBytes, bytes)
}

// Combine folds the stats of a child into s.
func (s *Stats) Combine(o *Stats) {
	if o == nil {
		return
	}
	s.TotalBytes += o.TotalBytes
	if o.hasTime {
		s.AddExecutionTime(o.StartMicros, o.EndMicros)
	}
}

// TotalMicros returns the length of the execution window and whether one
// was recorded.
func (s *Stats) TotalMicros() (int64, bool) {
	if s == nil || !s.hasTime {
		return 0, false
	}
	return s.EndMicros - s.StartMicros, true
}

// Displayable reports whether s carries anything worth showing.
func (s *Stats) Displayable() bool {
	if s == nil {
		return false
	}
	micros, _ := s.TotalMicros()
	return s.TotalBytes > 0 || micros > 0 || s.OutputSize != nil
}

// JoinStats attaches runtime measurements to the ops they were taken on and
// aggregates them into every enclosing scope. Only devices accepted by keep
// are joined; a nil keep accepts all. Previous stats are discarded.
// Negative allocations and runtimes are ignored.
func (h *Hierarchy) JoinStats(stats *StepStats, keep func(device string) bool) {
	for _, n := range h.index {
		n.Stats = nil
	}
	if stats != nil {
		for _, dev := range stats.DevStats {
			if keep != nil && !keep(dev.Device) {
				continue
			}
			for _, ns := range dev.NodeStats {
				h.joinNodeStats(dev.Device, ns)
			}
		}
	}

	var devices []string
	leaves := h.root.Leaves()
	for _, name := range leaves {
		if leaf := h.index[name]; leaf != nil && leaf.IsOp() && leaf.Op.Device != "" {
			if !slices.Contains(devices, leaf.Op.Device) {
				devices = append(devices, leaf.Op.Device)
			}
		}
	}
	h.devices = devices

	for _, n := range h.index {
		if n.IsGroup() {
			n.Stats = NewStats(nil)
			n.Group.DeviceHistogram = make(map[string]int)
		}
	}
	for _, name := range leaves {
		leaf := h.index[name]
		if leaf == nil {
			continue
		}
		for n := leaf; n.Parent != nil; n = n.Parent {
			p := n.Parent
			if !p.IsGroup() {
				continue
			}
			if leaf.IsOp() && leaf.Op.Device != "" {
				p.Group.DeviceHistogram[leaf.Op.Device]++
			}
			p.Stats.Combine(leaf.Stats)
		}
	}
}

func (h *Hierarchy) joinNodeStats(device string, ns NodeStats) {
	name := ns.NodeName
	if n := h.index[name]; n == nil || !n.IsOp() {
		name = StrictName(name)
	}
	n := h.index[name]
	if n == nil || !n.IsOp() {
		return
	}
	var bytes int64
	for _, alloc := range ns.Memory {
		if alloc.TotalBytes > 0 {
			bytes += alloc.TotalBytes
		}
	}
	var outputSize [][]int64
	for _, out := range ns.Output {
		outputSize = append(outputSize, slices.Clone(out.Shape))
	}
	n.Op.Device = device
	if n.Stats == nil {
		n.Stats = NewStats(outputSize)
	}
	n.Stats.AddBytesAllocation(bytes)
	if ns.AllEndRelMicros > 0 {
		n.Stats.AddExecutionTime(ns.AllStartMicros, ns.AllStartMicros+ns.AllEndRelMicros)
	}
}
