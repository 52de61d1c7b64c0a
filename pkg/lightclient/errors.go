package lightclient

import "errors"

var (
	// ErrInvalidTimestamp is returned when signature_slot >=
	// attested_header.slot >= finalized_header.slot does not hold.
	ErrInvalidTimestamp = errors.New("lightclient: invalid slot ordering in sync update")

	// ErrLowVoteCount is returned when the wrong sync committee is used
	// for signature_slot, or participation falls below the threshold.
	ErrLowVoteCount = errors.New("lightclient: sync committee rejected update")

	// ErrInvalidFinalityProof is returned when finality_branch fails to
	// verify finalized_header against attested_header.state_root.
	ErrInvalidFinalityProof = errors.New("lightclient: finality branch does not verify")

	// ErrInvalidNextCommitteeProof is returned when
	// next_sync_committee_branch fails to verify.
	ErrInvalidNextCommitteeProof = errors.New("lightclient: next sync committee branch does not verify")

	// ErrNotActual is returned (as an idempotent no-op signal, not a
	// protocol violation) when the update's finalized header is not newer
	// than the client's current finalized header.
	ErrNotActual = errors.New("lightclient: update does not advance finalized header")

	// ErrAlreadyStarted is returned when ApplyReplayBackStart is called
	// while the replay-back sub-state machine is already InProcess.
	ErrAlreadyStarted = errors.New("lightclient: replay-back already in progress")

	// ErrNotStarted is returned when ApplyReplayBackContinue is called
	// while the replay-back sub-state machine is Idle.
	ErrNotStarted = errors.New("lightclient: replay-back has not been started")

	// ErrHeaderChainBroken is returned when a batch of replay-back headers
	// does not chain by parent_root in slot order.
	ErrHeaderChainBroken = errors.New("lightclient: replay-back header batch does not chain")

	// ErrCheckpointMismatch is returned when the last header of a
	// replay-back batch does not match the anchored checkpoint.
	ErrCheckpointMismatch = errors.New("lightclient: replay-back batch does not reach anchored checkpoint")

	// ErrNotInitialized is returned when ApplySyncUpdate or a replay-back
	// call is made before Init.
	ErrNotInitialized = errors.New("lightclient: client not initialized")
)
