package grandpa

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/gear-tech/gear-bridges-sub000/pkg/codec"
	"github.com/gear-tech/gear-bridges-sub000/pkg/kvdb"
)

// cacheKeyPrefix namespaces ProofCache entries within a shared KV store.
var cacheKeyPrefix = []byte("grandpa/authority-set-proof/")

// RotationProof is the cached artifact for one authority-set id: a proof
// that a chain of era boundaries, each signed by its outgoing
// supermajority, produced AuthoritySetHash starting from
// GenesisAuthoritySetHash, per spec section 4.2.3.
type RotationProof struct {
	AuthoritySetID          uint64
	AuthoritySetHash        codec.Hash32
	GenesisAuthoritySetHash codec.Hash32
	ProofBytes              []byte
}

// ProofCache maps authority_set_id to its rotation-chain proof, backed by
// cometbft-db through pkg/kvdb.KVAdapter, the same storage adapter the
// teacher wired up for its own ledger.
type ProofCache struct {
	kv *kvdb.KVAdapter
}

// NewProofCache wraps an existing KVAdapter as a ProofCache.
func NewProofCache(kv *kvdb.KVAdapter) *ProofCache {
	return &ProofCache{kv: kv}
}

func cacheKey(authoritySetID uint64) []byte {
	key := make([]byte, len(cacheKeyPrefix)+8)
	copy(key, cacheKeyPrefix)
	binary.BigEndian.PutUint64(key[len(cacheKeyPrefix):], authoritySetID)
	return key
}

// Get returns the cached rotation proof for authoritySetID, or
// ErrAuthoritySetNotFound if none is cached.
func (c *ProofCache) Get(authoritySetID uint64) (*RotationProof, error) {
	raw, err := c.kv.Get(cacheKey(authoritySetID))
	if err != nil {
		return nil, fmt.Errorf("grandpa: read proof cache: %w", err)
	}
	if raw == nil {
		return nil, ErrAuthoritySetNotFound
	}
	var proof RotationProof
	if err := json.Unmarshal(raw, &proof); err != nil {
		return nil, fmt.Errorf("grandpa: decode cached proof: %w", err)
	}
	return &proof, nil
}

// Put stores proof, keyed by its AuthoritySetID.
func (c *ProofCache) Put(proof RotationProof) error {
	raw, err := json.Marshal(proof)
	if err != nil {
		return fmt.Errorf("grandpa: encode proof for cache: %w", err)
	}
	if err := c.kv.Set(cacheKey(proof.AuthoritySetID), raw); err != nil {
		return fmt.Errorf("grandpa: write proof cache: %w", err)
	}
	return nil
}

// CatchUp generates successive era rotation proofs, via next, until the
// cache reaches targetID, per spec section 4.2.3's catch-up loop. next
// produces the rotation proof for one era given its predecessor (nil for
// the genesis era).
func (c *ProofCache) CatchUp(targetID uint64, next func(predecessor *RotationProof, id uint64) (RotationProof, error)) error {
	var predecessor *RotationProof
	start := uint64(0)

	if cur, err := c.latestCachedID(targetID); err == nil {
		predecessor = cur
		start = cur.AuthoritySetID + 1
	}

	for id := start; id <= targetID; id++ {
		proof, err := next(predecessor, id)
		if err != nil {
			return fmt.Errorf("grandpa: generate rotation proof for authority set %d: %w", id, err)
		}
		if err := c.Put(proof); err != nil {
			return err
		}
		predecessor = &proof
	}
	return nil
}

// latestCachedID walks backward from targetID looking for the newest
// cached entry at or below it.
func (c *ProofCache) latestCachedID(targetID uint64) (*RotationProof, error) {
	for id := targetID; ; id-- {
		proof, err := c.Get(id)
		if err == nil {
			return proof, nil
		}
		if id == 0 {
			return nil, ErrAuthoritySetNotFound
		}
	}
}
