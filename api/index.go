package api

import (
	"sync"

	"github.com/google/btree"
	"github.com/huandu/skiplist"

	apitypes "github.com/openalpha/hifi/api/types"
	delegationtypes "github.com/openalpha/hifi/x/delegation/types"
)

// ============================================================================
// Grant expiry index
// ============================================================================

// expiryKey orders grants by expiry, then by grant key
type expiryKey struct {
	at  int64
	key string
}

type expiryKeyAsc struct{}

func (expiryKeyAsc) Compare(lhs, rhs interface{}) int {
	l := lhs.(expiryKey)
	r := rhs.(expiryKey)
	switch {
	case l.at < r.at:
		return -1
	case l.at > r.at:
		return 1
	case l.key < r.key:
		return -1
	case l.key > r.key:
		return 1
	}
	return 0
}

func (expiryKeyAsc) CalcScore(key interface{}) float64 {
	return float64(key.(expiryKey).at)
}

func grantKey(g *delegationtypes.Grant) string {
	return g.Grantor + "/" + g.PoolID + "/" + string(g.Capability)
}

// ExpiryIndex tracks enabled grants that carry an expiry so the service can
// announce them once they lapse
type ExpiryIndex struct {
	list   *skiplist.SkipList
	byKey  map[string]int64
	grants map[string]delegationtypes.Grant
	mu     sync.Mutex
}

// NewExpiryIndex creates an empty index
func NewExpiryIndex() *ExpiryIndex {
	return &ExpiryIndex{
		list:   skiplist.New(expiryKeyAsc{}),
		byKey:  make(map[string]int64),
		grants: make(map[string]delegationtypes.Grant),
	}
}

// Track inserts or refreshes a grant. Disabled or never-expiring grants are
// dropped from the index.
func (x *ExpiryIndex) Track(g delegationtypes.Grant) {
	x.mu.Lock()
	defer x.mu.Unlock()

	key := grantKey(&g)
	if at, ok := x.byKey[key]; ok {
		x.list.Remove(expiryKey{at: at, key: key})
		delete(x.byKey, key)
		delete(x.grants, key)
	}
	if !g.Enabled || g.ExpiresAt == 0 {
		return
	}
	x.list.Set(expiryKey{at: g.ExpiresAt, key: key}, key)
	x.byKey[key] = g.ExpiresAt
	x.grants[key] = g
}

// PopExpired removes and returns every grant whose expiry is before now
func (x *ExpiryIndex) PopExpired(now int64) []delegationtypes.Grant {
	x.mu.Lock()
	defer x.mu.Unlock()

	var expired []delegationtypes.Grant
	for elem := x.list.Front(); elem != nil; elem = x.list.Front() {
		k := elem.Key().(expiryKey)
		if k.at >= now {
			break
		}
		x.list.Remove(k)
		expired = append(expired, x.grants[k.key])
		delete(x.byKey, k.key)
		delete(x.grants, k.key)
	}
	return expired
}

// Len returns the number of tracked grants
func (x *ExpiryIndex) Len() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.list.Len()
}

// ============================================================================
// Pool ranking index
// ============================================================================

const rankingDegree = 8

// rankItem implements btree.Item, best return first
type rankItem struct {
	entry apitypes.RankEntry
}

func (a *rankItem) Less(b btree.Item) bool {
	o := b.(*rankItem)
	if a.entry.PnLBps != o.entry.PnLBps {
		return a.entry.PnLBps > o.entry.PnLBps
	}
	return a.entry.PoolID < o.entry.PoolID
}

// RankingIndex keeps pools ordered by PnL in basis points of principal
type RankingIndex struct {
	tree   *btree.BTree
	byPool map[string]*rankItem
	mu     sync.RWMutex
}

// NewRankingIndex creates an empty ranking
func NewRankingIndex() *RankingIndex {
	return &RankingIndex{
		tree:   btree.New(rankingDegree),
		byPool: make(map[string]*rankItem),
	}
}

// Update replaces the entry for a pool
func (r *RankingIndex) Update(entry apitypes.RankEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.byPool[entry.PoolID]; ok {
		r.tree.Delete(old)
	}
	item := &rankItem{entry: entry}
	r.tree.ReplaceOrInsert(item)
	r.byPool[entry.PoolID] = item
}

// Top returns up to limit entries, best first; limit <= 0 returns all
func (r *RankingIndex) Top(limit int) []apitypes.RankEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]apitypes.RankEntry, 0, r.tree.Len())
	r.tree.Ascend(func(item btree.Item) bool {
		out = append(out, item.(*rankItem).entry)
		return limit <= 0 || len(out) < limit
	})
	return out
}
