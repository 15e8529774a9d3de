package random

import (
	"sort"

	"github.com/ineiti/fledger-sub003/nodeids"
)

type nodeTime struct {
	id    nodeids.NodeID
	ticks uint32
}

// nodes is a tick-aged list of node ids. Ages start at 0 and grow by
// one per tick; they order nodes by how long they have been in the list.
type nodes struct {
	list []nodeTime
}

func (n *nodes) len() int {
	return len(n.list)
}

func (n *nodes) ids() nodeids.NodeIDs {
	out := make(nodeids.NodeIDs, 0, len(n.list))
	for _, nt := range n.list {
		out = append(out, nt.id)
	}
	return out
}

func (n *nodes) contains(id nodeids.NodeID) bool {
	for _, nt := range n.list {
		if nt.id == id {
			return true
		}
	}
	return false
}

// add appends id with age 0; a known id is left untouched.
func (n *nodes) add(id nodeids.NodeID) bool {
	if n.contains(id) {
		return false
	}
	n.list = append(n.list, nodeTime{id: id})
	return true
}

func (n *nodes) remove(id nodeids.NodeID) bool {
	for i, nt := range n.list {
		if nt.id == id {
			n.list = append(n.list[:i], n.list[i+1:]...)
			return true
		}
	}
	return false
}

// removeMissing drops every id not present in keep and returns the
// removed ids.
func (n *nodes) removeMissing(keep nodeids.NodeIDs) nodeids.NodeIDs {
	var kept []nodeTime
	var removed nodeids.NodeIDs
	for _, nt := range n.list {
		if keep.Contains(nt.id) {
			kept = append(kept, nt)
		} else {
			removed = append(removed, nt.id)
		}
	}
	n.list = kept
	return removed
}

func (n *nodes) tick() {
	for i := range n.list {
		n.list[i].ticks++
	}
}

// removeOlderThan drops and returns every id that has been in the list
// for more than the given number of ticks.
func (n *nodes) removeOlderThan(ticks uint32) nodeids.NodeIDs {
	var kept []nodeTime
	var removed nodeids.NodeIDs
	for _, nt := range n.list {
		if nt.ticks > ticks {
			removed = append(removed, nt.id)
		} else {
			kept = append(kept, nt)
		}
	}
	n.list = kept
	return removed
}

// removeOldestN drops and returns the n longest-lived ids.
func (n *nodes) removeOldestN(count int) nodeids.NodeIDs {
	if count > len(n.list) {
		count = len(n.list)
	}
	if count <= 0 {
		return nil
	}
	sort.SliceStable(n.list, func(i, j int) bool {
		return n.list[i].ticks > n.list[j].ticks
	})
	removed := make(nodeids.NodeIDs, 0, count)
	for _, nt := range n.list[:count] {
		removed = append(removed, nt.id)
	}
	n.list = n.list[count:]
	return removed
}
