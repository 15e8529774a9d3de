package main

import (
	"time"

	"github.com/ineiti/fledger-sub003/broker"
	"github.com/ineiti/fledger-sub003/codec"
	"github.com/ineiti/fledger-sub003/logger"
	"github.com/ineiti/fledger-sub003/network"
	"github.com/ineiti/fledger-sub003/nodeids"
	"github.com/ineiti/fledger-sub003/overlay"
	"github.com/ineiti/fledger-sub003/ping"
	"github.com/ineiti/fledger-sub003/random"
	"github.com/ineiti/fledger-sub003/timer"
)

type node struct {
	id     nodeids.NodeID
	rnd    *broker.Broker[random.RandomMessage]
	pings  *broker.Broker[ping.PingMessage]
	module *random.Module
	pinger *ping.Module
}

// Spins up a handful of simulated nodes, wires the full stack on each
// of them (network -> random-connections -> overlay -> ping) and lets
// the overlay converge for a few rounds.
func main() {
	log := logger.Get().Sugar()

	sim := network.NewSimulator()
	cfg := random.Config{TargetDegree: 3, PendingTimeout: 5}
	jsonCodec := codec.NewJSONCodec()

	var nodes []*node
	for i := 0; i < 5; i++ {
		id := nodeids.NewNodeID()
		net := sim.AddNode(id)

		rnd, module, err := random.Wire(cfg, net)
		if err != nil {
			log.Fatalf("failed to wire random-connections for %s: %v", id, err)
		}
		ov, err := overlay.WireRandom(rnd)
		if err != nil {
			log.Fatalf("failed to wire overlay for %s: %v", id, err)
		}
		pb, pinger, err := ping.Wire(ping.DefaultConfig(), jsonCodec, ov)
		if err != nil {
			log.Fatalf("failed to wire ping for %s: %v", id, err)
		}

		nodes = append(nodes, &node{id: id, rnd: rnd, pings: pb, module: module, pinger: pinger})
	}

	sim.SendNodeList()

	var timers []*timer.Timer
	for _, n := range nodes {
		timers = append(timers, timer.Wire(200*time.Millisecond, n.rnd,
			random.RandomMessage(random.Tick{})))
		timers = append(timers, timer.Wire(300*time.Millisecond, n.pings,
			ping.PingMessage(ping.Tick{})))
	}
	time.Sleep(1200 * time.Millisecond)
	for _, tmr := range timers {
		tmr.Stop()
	}

	for _, n := range nodes {
		connected := n.module.Connected()
		log.Infof("node %s connected to %d peers: %v", n.id, len(connected), connected)
		for _, peer := range connected {
			if stat := n.pinger.Stats(peer); stat != nil {
				log.Infof("  ping %s: tx=%d rx=%d", peer, stat.Tx, stat.Rx)
			}
		}
	}
}
