package queueproof

import "errors"

var (
	ErrEmptyProof    = errors.New("queueproof: empty proof")
	ErrRootMismatch  = errors.New("queueproof: storage root does not match first proof node")
	ErrChildMismatch = errors.New("queueproof: child hash does not match next proof node")
	ErrKeyExhausted  = errors.New("queueproof: key nibbles exhausted before reaching a value")
	ErrNoValue       = errors.New("queueproof: terminal node carries no value")
	ErrShortValue    = errors.New("queueproof: leaf value too short for a merkle root")
)
