package blslightclient

import "errors"

var (
	// ErrLowVoteCount is returned when fewer than 342 of the 512
	// sync-committee bits are set (spec: count*3 >= 512*2).
	ErrLowVoteCount = errors.New("blslightclient: sync committee participation below supermajority threshold")

	// ErrInvalidSignature is returned when the aggregate signature fails
	// deserialization or the pairing check.
	ErrInvalidSignature = errors.New("blslightclient: invalid aggregate BLS signature")

	// ErrMalformedPubkey is returned when a committee public key cannot be
	// deserialized as a G1 point.
	ErrMalformedPubkey = errors.New("blslightclient: malformed committee public key")

	// ErrBitlistLength is returned when sync_committee_bits is not exactly
	// CommitteeSize bits long.
	ErrBitlistLength = errors.New("blslightclient: sync committee bitlist has wrong length")
)
