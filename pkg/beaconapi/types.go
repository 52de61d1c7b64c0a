package beaconapi

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/gear-tech/gear-bridges-sub000/pkg/blslightclient"
	"github.com/gear-tech/gear-bridges-sub000/pkg/codec"
	"github.com/gear-tech/gear-bridges-sub000/pkg/lightclient"
)

// headerJSON mirrors the beacon API's BeaconBlockHeader JSON
// representation (hex-string roots, decimal-string slot/proposer_index).
type headerJSON struct {
	Slot          string `json:"slot"`
	ProposerIndex string `json:"proposer_index"`
	ParentRoot    string `json:"parent_root"`
	StateRoot     string `json:"state_root"`
	BodyRoot      string `json:"body_root"`
}

func (h headerJSON) toHeader() (lightclient.Header, error) {
	slot, err := parseUintString(h.Slot)
	if err != nil {
		return lightclient.Header{}, fmt.Errorf("slot: %w", err)
	}
	proposerIndex, err := parseUintString(h.ProposerIndex)
	if err != nil {
		return lightclient.Header{}, fmt.Errorf("proposer_index: %w", err)
	}
	parentRoot, err := codec.HexToHash32(h.ParentRoot)
	if err != nil {
		return lightclient.Header{}, fmt.Errorf("parent_root: %w", err)
	}
	stateRoot, err := codec.HexToHash32(h.StateRoot)
	if err != nil {
		return lightclient.Header{}, fmt.Errorf("state_root: %w", err)
	}
	bodyRoot, err := codec.HexToHash32(h.BodyRoot)
	if err != nil {
		return lightclient.Header{}, fmt.Errorf("body_root: %w", err)
	}
	return lightclient.Header{
		Slot:          slot,
		ProposerIndex: proposerIndex,
		ParentRoot:    parentRoot,
		StateRoot:     stateRoot,
		BodyRoot:      bodyRoot,
	}, nil
}

// committeeJSON mirrors the beacon API's SyncCommittee JSON
// representation: a list of hex-encoded pubkeys plus the aggregate.
type committeeJSON struct {
	Pubkeys         []string `json:"pubkeys"`
	AggregatePubkey string   `json:"aggregate_pubkey"`
}

func (c committeeJSON) toCommittee() (blslightclient.Committee, error) {
	var out blslightclient.Committee
	if len(c.Pubkeys) != blslightclient.CommitteeSize {
		return out, fmt.Errorf("expected %d pubkeys, got %d", blslightclient.CommitteeSize, len(c.Pubkeys))
	}
	for i, pk := range c.Pubkeys {
		raw, err := hexDecode(pk)
		if err != nil {
			return out, fmt.Errorf("pubkey %d: %w", i, err)
		}
		if len(raw) != blslightclient.PubKeySize {
			return out, fmt.Errorf("pubkey %d: wrong length %d", i, len(raw))
		}
		copy(out.Pubkeys[i][:], raw)
	}
	agg, err := hexDecode(c.AggregatePubkey)
	if err != nil {
		return out, fmt.Errorf("aggregate_pubkey: %w", err)
	}
	if len(agg) != blslightclient.PubKeySize {
		return out, fmt.Errorf("aggregate_pubkey: wrong length %d", len(agg))
	}
	copy(out.AggregatePubkey[:], agg)
	return out, nil
}

// syncAggregateJSON mirrors the beacon API's SyncAggregate JSON
// representation: a hex bitvector and a hex signature.
type syncAggregateJSON struct {
	SyncCommitteeBits      string `json:"sync_committee_bits"`
	SyncCommitteeSignature string `json:"sync_committee_signature"`
}

func (a syncAggregateJSON) toSyncAggregate() (blslightclient.SyncAggregate, error) {
	var out blslightclient.SyncAggregate
	bits, err := hexDecode(a.SyncCommitteeBits)
	if err != nil {
		return out, fmt.Errorf("sync_committee_bits: %w", err)
	}
	if len(bits) != len(out.Bits) {
		return out, fmt.Errorf("sync_committee_bits: wrong length %d", len(bits))
	}
	copy(out.Bits[:], bits)

	sig, err := hexDecode(a.SyncCommitteeSignature)
	if err != nil {
		return out, fmt.Errorf("sync_committee_signature: %w", err)
	}
	if len(sig) != blslightclient.SignatureSize {
		return out, fmt.Errorf("sync_committee_signature: wrong length %d", len(sig))
	}
	copy(out.Signature[:], sig)
	return out, nil
}

// syncUpdateJSON mirrors the beacon API's LightClientUpdate JSON
// representation (spec section 6 finality_update / updates responses).
type syncUpdateJSON struct {
	AttestedHeader struct {
		Beacon headerJSON `json:"beacon"`
	} `json:"attested_header"`
	FinalizedHeader struct {
		Beacon headerJSON `json:"beacon"`
	} `json:"finalized_header"`
	FinalityBranch          []string          `json:"finality_branch"`
	SyncAggregate           syncAggregateJSON `json:"sync_aggregate"`
	SignatureSlot           string            `json:"signature_slot"`
	NextSyncCommittee       *committeeJSON    `json:"next_sync_committee,omitempty"`
	NextSyncCommitteeBranch []string          `json:"next_sync_committee_branch,omitempty"`
}

func (u syncUpdateJSON) toSyncUpdate(fork lightclient.ForkSchedule) (*lightclient.SyncUpdate, error) {
	attested, err := u.AttestedHeader.Beacon.toHeader()
	if err != nil {
		return nil, fmt.Errorf("attested_header: %w", err)
	}
	finalized, err := u.FinalizedHeader.Beacon.toHeader()
	if err != nil {
		return nil, fmt.Errorf("finalized_header: %w", err)
	}
	finalityBranch, err := decodeBranch(u.FinalityBranch)
	if err != nil {
		return nil, fmt.Errorf("finality_branch: %w", err)
	}
	finalityBranch.Index = fork.FinalizedRootIndex
	aggregate, err := u.SyncAggregate.toSyncAggregate()
	if err != nil {
		return nil, fmt.Errorf("sync_aggregate: %w", err)
	}
	signatureSlot, err := parseUintString(u.SignatureSlot)
	if err != nil {
		return nil, fmt.Errorf("signature_slot: %w", err)
	}

	out := &lightclient.SyncUpdate{
		AttestedHeader:  attested,
		FinalizedHeader: finalized,
		FinalityBranch:  finalityBranch,
		SyncAggregate:   aggregate,
		SignatureSlot:   signatureSlot,
	}

	if u.NextSyncCommittee != nil {
		committee, err := u.NextSyncCommittee.toCommittee()
		if err != nil {
			return nil, fmt.Errorf("next_sync_committee: %w", err)
		}
		out.NextSyncCommittee = &committee
		branch, err := decodeBranch(u.NextSyncCommitteeBranch)
		if err != nil {
			return nil, fmt.Errorf("next_sync_committee_branch: %w", err)
		}
		branch.Index = fork.NextSyncCommitteeIndex
		out.NextSyncCommitteeBranch = branch
	}

	return out, nil
}

func decodeBranch(hashes []string) (codec.MerkleBranch, error) {
	out := codec.MerkleBranch{Hashes: make([][]byte, len(hashes))}
	for i, h := range hashes {
		raw, err := hexDecode(h)
		if err != nil {
			return out, fmt.Errorf("hash %d: %w", i, err)
		}
		out.Hashes[i] = raw
	}
	return out, nil
}

func hexDecode(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	return hex.DecodeString(s)
}
