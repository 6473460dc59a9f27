// Package ethkzg implements the KZG polynomial commitment engine used by
// Ethereum blob transactions (EIP-4844) on BLS12-381: commitments to blobs,
// opening proofs at arbitrary or Fiat–Shamir derived points, and single or
// batched verification.
//
// All operations go through a Context, an immutable object wrapping a loaded
// trusted setup. A Context is safe for concurrent use; per-call scratch is
// allocated and released inside each call.
package ethkzg

import (
	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

const (
	// ScalarsPerBlobMainnet is the number of field elements per blob on
	// mainnet.
	ScalarsPerBlobMainnet = 4096

	// ScalarsPerBlobMinimal is the minimal test preset size.
	ScalarsPerBlobMinimal = 4

	// BytesPerScalar is the serialized size of one blob chunk.
	BytesPerScalar = fr.Bytes
)

// Blob is an opaque byte buffer of N×32 bytes for the context's polynomial
// size N; each 32-byte chunk is a big-endian scalar field element candidate.
// A blob is not validated until it is converted to a polynomial.
type Blob []byte

// Commitment is a compressed G₁ point encoding [p(τ)]G₁.
type Commitment [bls12381.SizeOfG1AffineCompressed]byte

// Proof is a compressed G₁ point encoding the commitment to the quotient
// polynomial (p(X) - p(z))/(X - z).
type Proof [bls12381.SizeOfG1AffineCompressed]byte

// Scalar is a 32-byte big-endian scalar field element encoding.
type Scalar [fr.Bytes]byte
