package ping

import "github.com/ineiti/fledger-sub003/nodeids"

type Config struct {
	// Interval is how many ticks pass between two pings to a node.
	Interval uint32
	// Timeout is how many ticks past the interval a node may stay
	// silent before it counts as failed.
	Timeout uint32
}

func DefaultConfig() Config {
	return Config{
		Interval: 1,
		Timeout:  2,
	}
}

// Stat is the per-neighbor bookkeeping.
type Stat struct {
	LastPing uint32
	Rx       uint32
	Tx       uint32
}

type storage struct {
	cfg    Config
	stats  map[nodeids.NodeID]*Stat
	ping   nodeids.NodeIDs
	failed nodeids.NodeIDs
}

func newStorage(cfg Config) *storage {
	return &storage{
		cfg:   cfg,
		stats: make(map[nodeids.NodeID]*Stat),
	}
}

// newNode starts tracking a neighbor and schedules a first ping.
func (s *storage) newNode(id nodeids.NodeID) {
	if _, ok := s.stats[id]; ok {
		return
	}
	s.stats[id] = &Stat{Tx: 1}
	s.ping = append(s.ping, id)
}

func (s *storage) removeNode(id nodeids.NodeID) {
	delete(s.stats, id)
}

// pong resets the countdown of a neighbor that answered.
func (s *storage) pong(id nodeids.NodeID) {
	stat, ok := s.stats[id]
	if !ok {
		s.newNode(id)
		return
	}
	stat.LastPing = 0
	stat.Rx++
}

// tick advances all countdowns and fills ping with the neighbors due
// for a ping, failed with those past the timeout.
func (s *storage) tick() {
	s.ping = nil
	s.failed = nil
	for id, stat := range s.stats {
		stat.LastPing++
		if stat.LastPing >= s.cfg.Interval+s.cfg.Timeout {
			s.failed = append(s.failed, id)
		} else if stat.LastPing >= s.cfg.Interval {
			stat.Tx++
			s.ping = append(s.ping, id)
		}
	}
	for _, id := range s.failed {
		delete(s.stats, id)
	}
}
