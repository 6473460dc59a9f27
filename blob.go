package ethkzg

import (
	"fmt"
	"sync/atomic"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"

	"github.com/consensys/eth-kzg/internal/kzg"
	"github.com/consensys/eth-kzg/internal/parallel"
)

// deserializeBlob converts a blob into a polynomial in evaluation form. Each
// 32-byte chunk is decoded independently; decoding always processes every
// chunk, and the reported error is the lowest-indexed invalid chunk, so the
// outcome does not depend on goroutine scheduling.
//
// nbTasks <= 1 decodes inline; the batch path uses that to parallelize over
// batch entries instead of chunks.
func (ctx *Context) deserializeBlob(blob Blob, nbTasks int) (kzg.Polynomial, error) {
	if len(blob) != ctx.blobBytes {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrBlobLength, len(blob), ctx.blobBytes)
	}

	n := int(ctx.domain.Cardinality)
	poly := make(kzg.Polynomial, n)

	var firstBad atomic.Int64
	firstBad.Store(-1)
	record := func(i int) {
		for {
			cur := firstBad.Load()
			if cur != -1 && cur <= int64(i) {
				return
			}
			if firstBad.CompareAndSwap(cur, int64(i)) {
				return
			}
		}
	}

	work := func(start, end int) {
		for i := start; i < end; i++ {
			chunk := blob[i*BytesPerScalar : (i+1)*BytesPerScalar]
			if err := poly[i].SetBytesCanonical(chunk); err != nil {
				record(i)
			}
		}
	}

	if nbTasks <= 1 {
		work(0, n)
	} else {
		parallel.Execute(n, work, nbTasks)
	}

	if i := firstBad.Load(); i != -1 {
		return nil, fmt.Errorf("%w: blob chunk %d", ErrNonCanonicalScalar, i)
	}
	return poly, nil
}

func deserializeCommitment(c Commitment) (bls12381.G1Affine, error) {
	var p bls12381.G1Affine
	if _, err := p.SetBytes(c[:]); err != nil {
		return p, fmt.Errorf("%w: %v", ErrInvalidCommitment, err)
	}
	return p, nil
}

func deserializeProof(pr Proof) (bls12381.G1Affine, error) {
	var p bls12381.G1Affine
	if _, err := p.SetBytes(pr[:]); err != nil {
		return p, fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}
	return p, nil
}

func deserializeScalar(s Scalar) (fr.Element, error) {
	var e fr.Element
	if err := e.SetBytesCanonical(s[:]); err != nil {
		return e, fmt.Errorf("%w: %v", ErrNonCanonicalScalar, err)
	}
	return e, nil
}
