// Package relay fabricates the Received-style trace chain a message would
// have accumulated while traversing one or more mail relays.
package relay

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/lets-qa/EML-Content-Generator/model"
)

const (
	minHops = 1
	maxHops = 3

	// rfc5322Layout renders hop dates with a fixed numeric offset; chains
	// are always built in UTC.
	rfc5322Layout = "Mon, 02 Jan 2006 15:04:05 -0700"
)

// BuildChain simulates 1-3 relay traversals ending shortly before sendTime.
// Hosts are drawn with replacement; hop timestamps strictly increase and the
// last hop precedes sendTime. An empty host pool yields an empty chain.
func BuildChain(rng *rand.Rand, hosts []string, sendTime time.Time) []model.RelayHop {
	if len(hosts) == 0 {
		return nil
	}

	hops := minHops + rng.Intn(maxHops-minHops+1)
	chain := make([]string, hops+1)
	for i := range chain {
		chain[i] = hosts[rng.Intn(len(hosts))]
	}

	t := sendTime.Add(-time.Duration(5+rng.Intn(11)) * time.Minute)
	out := make([]model.RelayHop, 0, hops)
	for i := 0; i < hops; i++ {
		t = t.Add(time.Duration(30+rng.Intn(61)) * time.Second)
		out = append(out, model.RelayHop{
			Source: chain[i],
			Dest:   chain[i+1],
			ID:     fmt.Sprintf("%08x", rng.Uint32()),
			Time:   t.UTC(),
		})
	}
	return out
}

// TraceLine renders a hop as the value of a Received header.
func TraceLine(h model.RelayHop) string {
	return fmt.Sprintf("from %s by %s with ESMTP id %s; %s",
		h.Source, h.Dest, h.ID, h.Time.UTC().Format(rfc5322Layout))
}
