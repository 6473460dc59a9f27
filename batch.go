package ethkzg

import (
	"fmt"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"golang.org/x/sync/errgroup"

	"github.com/consensys/eth-kzg/internal/kzg"
)

// VerifyBatch verifies n (blob, commitment, proof) triples with a single
// pairing check, folding the per-entry checks with the powers of a blinding
// scalar derived from randomSeed.
//
// An empty batch verifies trivially. Mismatched slice lengths are an input
// contract error, reported before any entry is touched. Per-entry decoding,
// challenge derivation and polynomial evaluation run in parallel across
// entries; the batch fails if any entry fails to decode, or if the folded
// pairing check does not hold (ErrVerifyFailed).
//
// randomSeed should come from a secure RNG: the blinding weights must be
// unpredictable to whoever produced the commitments, otherwise a set of
// individually invalid entries with cancelling errors could pass. An all-zero
// seed is handled by a deterministic transcript-hash fallback (see
// deriveBlindingScalar).
func (ctx *Context) VerifyBatch(blobs []Blob, commitments []Commitment, proofs []Proof, randomSeed [32]byte) error {
	n := len(blobs)
	if len(commitments) != n || len(proofs) != n {
		return fmt.Errorf("%w: %d blobs, %d commitments, %d proofs",
			ErrBatchLengthMismatch, n, len(commitments), len(proofs))
	}
	if n == 0 {
		return nil
	}

	challenges := make([]fr.Element, n)
	comms := make([]bls12381.G1Affine, n)
	openingProofs := make([]kzg.OpeningProof, n)

	var g errgroup.Group
	g.SetLimit(ctx.nbTasks)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			// chunk-level parallelism is disabled here: the batch
			// already partitions work across entries
			poly, err := ctx.deserializeBlob(blobs[i], 1)
			if err != nil {
				return fmt.Errorf("batch entry %d: %w", i, err)
			}

			comm, err := deserializeCommitment(commitments[i])
			if err != nil {
				return fmt.Errorf("batch entry %d: %w", i, err)
			}

			quotient, err := deserializeProof(proofs[i])
			if err != nil {
				return fmt.Errorf("batch entry %d: %w", i, err)
			}

			challenges[i] = ctx.computeChallenge(blobs[i], commitments[i])

			y, _, err := ctx.domain.EvaluateLagrangePolynomial(poly, challenges[i])
			if err != nil {
				return fmt.Errorf("batch entry %d: %w", i, err)
			}

			comms[i] = comm
			openingProofs[i] = kzg.OpeningProof{
				QuotientCommitment: quotient,
				InputPoint:         challenges[i],
				ClaimedValue:       *y,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	r := deriveBlindingScalar(randomSeed, challenges)
	return kzg.BatchVerifyMultiPoints(comms, openingProofs, r, ctx.openKey)
}
