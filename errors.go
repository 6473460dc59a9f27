package ethkzg

import (
	"errors"

	"github.com/consensys/eth-kzg/internal/kzg"
)

var (
	// ErrBlobLength is returned when a blob's byte length does not match
	// the context's polynomial size.
	ErrBlobLength = errors.New("blob length does not match the trusted setup size")

	// ErrNonCanonicalScalar is returned when a 32-byte chunk is not a
	// canonical (reduced) scalar field element.
	ErrNonCanonicalScalar = errors.New("scalar is not canonical")

	// ErrInvalidCommitment is returned when commitment bytes do not decode
	// to a valid G1 subgroup point.
	ErrInvalidCommitment = errors.New("invalid commitment encoding")

	// ErrInvalidProof is returned when proof bytes do not decode to a
	// valid G1 subgroup point.
	ErrInvalidProof = errors.New("invalid proof encoding")

	// ErrBatchLengthMismatch is returned when the blob, commitment and
	// proof slices of a batch differ in length.
	ErrBatchLengthMismatch = errors.New("batch slices have mismatched lengths")

	// ErrVerifyFailed is the cryptographic "no": the encodings were well
	// formed but the pairing check did not hold. It is distinct from every
	// decode error above.
	ErrVerifyFailed = kzg.ErrVerifyOpeningProof
)
