package ethbridge

import "errors"

var (
	ErrInvalidInclusionProof = errors.New("ethbridge: merkle inclusion proof does not reconstruct the claimed root")
	ErrRootNotRelayed        = errors.New("ethbridge: no merkle root has been relayed for this block yet")
	ErrAlreadyProcessed      = errors.New("ethbridge: nonce already processed")
)
