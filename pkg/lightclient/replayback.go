package lightclient

import (
	"fmt"

	"github.com/gear-tech/gear-bridges-sub000/pkg/codec"
)

// replayBackState holds the streaming replay-back sub-state machine's
// working data: the fresh sync-committee update anchoring the far end of
// the gap, the chain of headers received so far, and which direction they
// extend.
type replayBackState struct {
	status ReplayBackState

	anchorUpdate SyncUpdate
	target       codec.Hash32 // the previously finalized tip's root, to meet
	headers      []Header     // accumulated in the order received
}

// ApplyReplayBackStart begins a replay-back session: update must be a
// fresh sync update whose finalized header extends past the client's
// current tip by exactly one sync-committee period (the gap
// ApplySyncUpdate just rejected with ReplayBackRequired), and headers is
// the first batch of the contiguous chain connecting the two tips.
func (s *State) ApplyReplayBackStart(update SyncUpdate, headers []Header) error {
	if !s.initialized {
		return ErrNotInitialized
	}
	if s.replayBack.status == ReplayBackInProcess {
		return ErrAlreadyStarted
	}

	if update.FinalizedHeader.Slot-s.finalizedHeader.Slot != SlotsPerSyncCommitteePeriod {
		return fmt.Errorf("lightclient: replay-back start update must extend exactly one period past the current tip")
	}

	targetRoot, err := s.finalizedHeader.Root()
	if err != nil {
		return fmt.Errorf("lightclient: replay-back target root: %w", err)
	}

	s.replayBack = replayBackState{
		status:       ReplayBackInProcess,
		anchorUpdate: update,
		target:       targetRoot,
		headers:      []Header{update.FinalizedHeader},
	}

	if err := s.appendReplayBackBatch(headers); err != nil {
		s.replayBack = replayBackState{}
		return err
	}
	return nil
}

// ApplyReplayBackContinue extends an in-progress replay-back session with
// the next batch of headers, finishing the session (and committing the
// anchor update) once the chain reaches the target.
func (s *State) ApplyReplayBackContinue(headers []Header) error {
	if !s.initialized {
		return ErrNotInitialized
	}
	if s.replayBack.status != ReplayBackInProcess {
		return ErrNotStarted
	}
	return s.appendReplayBackBatch(headers)
}

// appendReplayBackBatch validates that headers extend the session's chain
// backward in strictly descending slot order, each header's parent_root
// equal to the tree-hash root of the next (older) header, and either
// extends the session or, once the chain meets the target, commits the
// anchor update and marks the session Finished.
func (s *State) appendReplayBackBatch(headers []Header) error {
	if len(headers) == 0 {
		return fmt.Errorf("lightclient: replay-back batch must not be empty")
	}

	chain := append(append([]Header(nil), s.replayBack.headers...), headers...)
	for i := 0; i+1 < len(chain); i++ {
		if chain[i].Slot <= chain[i+1].Slot {
			return ErrHeaderChainBroken
		}
		nextRoot, err := chain[i+1].Root()
		if err != nil {
			return fmt.Errorf("lightclient: replay-back header root: %w", err)
		}
		if chain[i].ParentRoot != nextRoot {
			return ErrHeaderChainBroken
		}
	}
	s.replayBack.headers = chain

	lastRoot, err := chain[len(chain)-1].Root()
	if err != nil {
		return fmt.Errorf("lightclient: replay-back last header root: %w", err)
	}
	if lastRoot != s.replayBack.target {
		return nil
	}

	res, err := s.ApplySyncUpdate(s.replayBack.anchorUpdate)
	if err != nil {
		if _, ok := err.(ReplayBackRequired); ok {
			return fmt.Errorf("lightclient: replay-back anchor update itself requires a further gap closure")
		}
		return fmt.Errorf("lightclient: commit replay-back anchor update: %w", err)
	}
	_ = res

	s.replayBack.status = ReplayBackFinished
	return nil
}

// ReplayBackStatus reports the replay-back sub-state machine's current
// state.
func (s *State) ReplayBackStatus() ReplayBackState {
	return s.replayBack.status
}
