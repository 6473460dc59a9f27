package ethkzg

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

// Domain separators shared with the consensus specs; the challenge transcript
// must hash byte for byte the same across implementations.
var (
	fiatShamirDomain     = [16]byte{'F', 'S', 'B', 'L', 'O', 'B', 'V', 'E', 'R', 'I', 'F', 'Y', '_', 'V', '1', '_'}
	batchChallengeDomain = [16]byte{'R', 'C', 'K', 'Z', 'G', 'B', 'A', 'T', 'C', 'H', '_', '_', '_', 'V', '1', '_'}
)

// computeChallenge derives the Fiat–Shamir evaluation challenge from a blob
// and its claimed commitment:
//
//	SHA-256(domain ‖ le128(N) ‖ blob ‖ commitment) reduced into Fr
//
// Deterministic and total: the reduction accepts any digest.
func (ctx *Context) computeChallenge(blob Blob, commitment Commitment) fr.Element {
	h := sha256.New()
	h.Write(fiatShamirDomain[:])

	var degree [16]byte
	binary.LittleEndian.PutUint64(degree[:8], ctx.domain.Cardinality)
	h.Write(degree[:])

	h.Write(blob)
	h.Write(commitment[:])

	var challenge fr.Element
	challenge.SetBytes(h.Sum(nil))
	return challenge
}

// deriveBlindingScalar produces the batch blinding scalar r. The primary path
// is the caller-supplied random seed, reduced big-endian into Fr. An all-zero
// seed falls back to hashing the transcript of per-entry challenges, which
// keeps the function total under degenerate input; the fallback is
// deterministic and carries no stronger security claim than that.
func deriveBlindingScalar(seed [32]byte, challenges []fr.Element) fr.Element {
	var r fr.Element
	if seed != [32]byte{} {
		r.SetBytes(seed[:])
		return r
	}

	h := sha256.New()
	h.Write(batchChallengeDomain[:])
	for i := range challenges {
		b := challenges[i].Bytes()
		h.Write(b[:])
	}
	r.SetBytes(h.Sum(nil))
	return r
}
