package search

import (
	"sync"
	"sync/atomic"

	"github.com/hailam/chessplay/internal/board"
)

// Cache tuning defaults and bounds, per §6.
const (
	DefaultHashMB = 256
	MinHashMB     = 0
	MaxHashMB     = 131072

	DefaultLocks = 1024
	MinLocks     = 1
	MaxLocks     = 65536 * 16

	invalidStaticEval = -32768
)

// LookupInstruction is the TranspositionCache lookup verdict (§4.3).
type LookupInstruction int

const (
	// Continue means the caller should keep searching this node; TTMove
	// and StaticEval, if present, are still useful hints.
	Continue LookupInstruction = iota
	// Stop means the stored entry already bounds the result at the
	// requested depth and window; Score is authoritative.
	Stop
)

// LookupResult is returned by Cache.Lookup.
type LookupResult struct {
	Instruction LookupInstruction
	Score       int16
	TTMove      board.Move
	HasTTMove   bool
	StaticEval  int16
	HasStatic   bool
}

// cacheEntry is CacheEntry from §3. The fields are not bit-packed: with
// alignment padding the Go struct is 24 bytes, not 16.
type cacheEntry struct {
	upperHash  uint32
	lowerHash  uint32
	depth      int8
	pliesPlayed uint16
	score      int16
	staticEval int16
	mv         uint16
	alpha      bool
	beta       bool
	pvNode     bool
}

func (e *cacheEntry) isInvalid() bool { return e.mv == 0 }

func (e *cacheEntry) validateHash(hash uint64) bool {
	return uint64(e.upperHash) == hash>>32 && uint64(e.lowerHash) == hash&0xFFFFFFFF
}

// getScore is the replacement-priority score from §4.3's policy: deeper,
// PV-sourced entries resist eviction more than shallow non-PV ones.
func (e *cacheEntry) getScore() float64 {
	w := 0.7
	if e.pvNode {
		w = 1.0
	}
	return float64(e.depth) * w
}

func (e *cacheEntry) write(hash uint64, depth int8, pliesPlayed uint16, score int16, staticEval int16, hasStatic, pvNode, alpha, beta bool, mv uint16) {
	e.upperHash = uint32(hash >> 32)
	e.lowerHash = uint32(hash & 0xFFFFFFFF)
	e.depth = depth
	e.pliesPlayed = pliesPlayed
	e.score = score
	e.alpha = alpha
	e.beta = beta
	e.pvNode = pvNode
	e.mv = mv
	if hasStatic {
		e.staticEval = staticEval
	} else {
		e.staticEval = invalidStaticEval
	}
}

// cacheBucket holds exactly 3 entries (72 bytes); the padding rounds the
// bucket up to 128 bytes, so a bucket spans two 64-byte cache lines, not one.
type cacheBucket struct {
	entries [3]cacheEntry
	_       [64 - (3*24)%64]byte
}

func (b *cacheBucket) probe(hash uint64) (*cacheEntry, bool) {
	if hash == 0 {
		return nil, false
	}
	for i := range b.entries {
		if b.entries[i].validateHash(hash) {
			return &b.entries[i], true
		}
	}
	return nil, false
}

// replace implements the bucket replacement cascade from §4.3/§9: an
// invalid, stale, or hash-matching slot always accepts the write (moved to
// slot 0 by swap); otherwise the lowest-scoring slot is evicted if the
// candidate's score is no worse. A hash match never checks "is this
// actually better" — it always overwrites, per the source it is grounded on.
func (b *cacheBucket) replace(hash uint64, depth int8, pliesPlayed uint16, score int16, staticEval int16, hasStatic, pvNode, alpha, beta bool, mv uint16) bool {
	write := func(e *cacheEntry) { e.write(hash, depth, pliesPlayed, score, staticEval, hasStatic, pvNode, alpha, beta, mv) }

	for slot := 0; slot < 3; slot++ {
		e := &b.entries[slot]
		if e.isInvalid() || e.pliesPlayed < pliesPlayed || e.validateHash(hash) {
			wasInvalid := e.isInvalid()
			write(e)
			for s := slot; s > 0; s-- {
				b.entries[s-1], b.entries[s] = b.entries[s], b.entries[s-1]
			}
			return wasInvalid
		}
	}

	minScore := b.entries[0].getScore()
	minIdx := 0
	for i := 1; i < 3; i++ {
		if s := b.entries[i].getScore(); s < minScore {
			minScore = s
			minIdx = i
		}
	}
	newScore := float64(depth) * boolWeight(pvNode)
	if newScore >= minScore {
		write(&b.entries[minIdx])
	}
	return false
}

func (b *cacheBucket) ageEntry(hash uint64, newAge uint16) {
	if e, ok := b.probe(hash); ok {
		e.pliesPlayed = newAge
	}
}

func boolWeight(pv bool) float64 {
	if pv {
		return 1.0
	}
	return 0.7
}

// stripe is one readers-writer-protected shard of buckets.
type stripe struct {
	mu      sync.RWMutex
	buckets []cacheBucket
}

// Cache is the lock-striped, 3-way-bucketed transposition table (§3, §4.3).
type Cache struct {
	entries        int
	locks          int
	bucketsPerLock int
	full           atomic.Int64
	stripes        []*stripe
}

// NewCache builds a cache of mbSize megabytes split across `locks` stripes.
// The bucket count is mbSize megabytes divided by 64 bytes; since a
// cacheBucket is 128 bytes, the allocation is about twice mbSize.
// A zero-size cache degrades lookup/insert to no-ops (§7).
func NewCache(mbSize, locks int) *Cache {
	if locks < MinLocks {
		locks = MinLocks
	}
	if locks > MaxLocks {
		locks = MaxLocks
	}
	buckets := 1024 * 1024 * mbSize / 64
	if buckets < locks {
		buckets = locks
	}
	bucketsPerLock := buckets / locks
	if bucketsPerLock == 0 {
		bucketsPerLock = 1
	}
	entries := bucketsPerLock * locks * 3
	if mbSize == 0 {
		entries = 0
		bucketsPerLock = 0
	}

	c := &Cache{
		entries:        entries,
		locks:          locks,
		bucketsPerLock: bucketsPerLock,
		stripes:        make([]*stripe, locks),
	}
	for i := range c.stripes {
		c.stripes[i] = &stripe{buckets: make([]cacheBucket, bucketsPerLock)}
	}
	return c
}

func (c *Cache) stripeFor(hash uint64) *stripe {
	idx := int(hash>>44) % c.locks
	return c.stripes[idx]
}

func (c *Cache) bucketIndex(hash uint64) int {
	if c.bucketsPerLock == 0 {
		return 0
	}
	return int(hash % uint64(c.bucketsPerLock))
}

// GetStatus reports fill usage in per-mille, per §4.3.
func (c *Cache) GetStatus() float64 {
	if c.entries == 0 {
		return 1000
	}
	return float64(c.full.Load()) / float64(c.entries) * 1000
}

// Clear resets every entry to invalid.
func (c *Cache) Clear() {
	for _, s := range c.stripes {
		s.mu.Lock()
		for i := range s.buckets {
			s.buckets[i] = cacheBucket{}
		}
		s.mu.Unlock()
	}
	c.full.Store(0)
}

// ageEntry re-stamps a matching entry's plies-played to the current root,
// called on a lookup hit whose age has drifted from the current search.
func (c *Cache) ageEntry(hash uint64, newAge uint16) {
	if c.bucketsPerLock == 0 {
		return
	}
	s := c.stripeFor(hash)
	s.mu.Lock()
	s.buckets[c.bucketIndex(hash)].ageEntry(hash, newAge)
	s.mu.Unlock()
}

// Lookup implements §4.3's contract. depthLeft<=0 or a non-PV window (beta
// - alpha <= 1) both permit an early Stop on a depth-sufficient, bound-
// compatible hit.
func (c *Cache) Lookup(hash uint64, pos *board.Position, depthLeft int, alpha, beta int16, rootPlies uint16) LookupResult {
	if c.bucketsPerLock == 0 {
		return LookupResult{Instruction: Continue}
	}

	s := c.stripeFor(hash)
	s.mu.RLock()
	bucket := s.buckets[c.bucketIndex(hash)]
	s.mu.RUnlock()

	e, ok := bucket.probe(hash)
	if !ok {
		return LookupResult{Instruction: Continue}
	}

	res := LookupResult{Instruction: Continue}

	isNarrow := beta-alpha <= 1 || depthLeft <= 0
	boundCompatible := (!e.alpha && !e.beta) ||
		(e.beta && e.score >= beta) ||
		(e.alpha && e.score <= alpha)

	if int(e.depth) >= depthLeft && isNarrow && boundCompatible {
		res.Instruction = Stop
		res.Score = e.score
		res.TTMove = decodeTTMove(pos, e.mv)
		res.HasTTMove = res.TTMove != board.NoMove
		return res
	}

	if e.staticEval != invalidStaticEval {
		res.StaticEval = e.staticEval
		res.HasStatic = true
	}
	res.TTMove = decodeTTMove(pos, e.mv)
	res.HasTTMove = res.TTMove != board.NoMove

	if e.pliesPlayed != rootPlies {
		c.ageEntry(hash, rootPlies)
	}

	return res
}

// Insert writes a search result into the cache with bound flags derived
// from (score, originalAlpha, beta), per §4.3.
func (c *Cache) Insert(hash uint64, pos *board.Position, mv board.Move, score, originalAlpha, beta int16, depthLeft int, rootPlies uint16, staticEval int16, hasStatic bool) {
	if c.bucketsPerLock == 0 {
		return
	}

	lowerBound := score >= beta
	upperBound := score <= originalAlpha
	pvNode := beta-originalAlpha > 1

	encoded := encodeTTMove(pos, mv)

	s := c.stripeFor(hash)
	s.mu.Lock()
	bucket := &s.buckets[c.bucketIndex(hash)]
	wasEmpty := bucket.replace(hash, int8(depthLeft), rootPlies, score, staticEval, hasStatic, pvNode, upperBound, lowerBound, encoded)
	s.mu.Unlock()

	if wasEmpty {
		c.full.Add(1)
	}
}
