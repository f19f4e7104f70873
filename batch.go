package main

import "github.com/sirupsen/logrus"

// DefaultBatchExpiryTicks is how long a batch may wait for its final chunk
const DefaultBatchExpiryTicks = 600

type pendingBatch struct {
	units    []UnitID
	members  map[UnitID]struct{}
	lastTick uint64
}

// CommandQueue collects the units of a chunked command until the final
// chunk for its target arrives. Batches are keyed by the resolved target
// position. Only the simulation goroutine touches it.
type CommandQueue struct {
	pending map[Vec2]*pendingBatch
	expiry  uint64
	log     *logrus.Entry

	// ChunkSize caps the unit ids one commandUnits packet may carry
	ChunkSize int
}

// NewCommandQueue creates an empty queue; expiryTicks <= 0 uses the default
func NewCommandQueue(expiryTicks uint64) *CommandQueue {
	if expiryTicks == 0 {
		expiryTicks = DefaultBatchExpiryTicks
	}
	return &CommandQueue{
		pending:   make(map[Vec2]*pendingBatch),
		expiry:    expiryTicks,
		log:       componentLog("batch"),
		ChunkSize: DefaultCommandChunkSize,
	}
}

// Register adds id to the batch for key, once
func (q *CommandQueue) Register(key Vec2, id UnitID, tick uint64) {
	b, ok := q.pending[key]
	if !ok {
		b = &pendingBatch{members: make(map[UnitID]struct{})}
		q.pending[key] = b
	}
	b.lastTick = tick
	if _, dup := b.members[id]; dup {
		return
	}
	b.members[id] = struct{}{}
	b.units = append(b.units, id)
}

// Finalize removes the batch for key and returns its units in registration order
func (q *CommandQueue) Finalize(key Vec2) []UnitID {
	b, ok := q.pending[key]
	if !ok {
		return nil
	}
	delete(q.pending, key)
	return b.units
}

// Pending reports whether a batch is open for key
func (q *CommandQueue) Pending(key Vec2) bool {
	_, ok := q.pending[key]
	return ok
}

// Len returns the number of open batches
func (q *CommandQueue) Len() int { return len(q.pending) }

// Reap drops batches whose final chunk never arrived and returns how many
func (q *CommandQueue) Reap(tick uint64) int {
	n := 0
	for key, b := range q.pending {
		if tick-b.lastTick < q.expiry {
			continue
		}
		q.log.WithFields(logrus.Fields{
			"target": key,
			"units":  len(b.units),
			"idle":   tick - b.lastTick,
		}).Warn("reaping abandoned command batch")
		delete(q.pending, key)
		n++
	}
	return n
}

// Reset drops every open batch
func (q *CommandQueue) Reset() {
	clear(q.pending)
}
