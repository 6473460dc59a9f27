package ethkzg

import (
	"github.com/consensys/eth-kzg/internal/kzg"
)

// Commit computes the KZG commitment to a blob: the MSM of the Lagrange SRS
// by the blob's field elements. Deterministic for a given blob and setup.
func (ctx *Context) Commit(blob Blob) (Commitment, error) {
	poly, err := ctx.deserializeBlob(blob, ctx.nbTasks)
	if err != nil {
		return Commitment{}, err
	}

	c, err := kzg.Commit(poly, ctx.commitKey, ctx.nbTasks)
	if err != nil {
		return Commitment{}, err
	}
	return Commitment(c.Bytes()), nil
}

// Prove opens the blob's polynomial at the caller-supplied challenge z,
// returning the opening proof and the claimed evaluation y = p(z).
func (ctx *Context) Prove(blob Blob, z Scalar) (Proof, Scalar, error) {
	poly, err := ctx.deserializeBlob(blob, ctx.nbTasks)
	if err != nil {
		return Proof{}, Scalar{}, err
	}

	zFr, err := deserializeScalar(z)
	if err != nil {
		return Proof{}, Scalar{}, err
	}

	proof, err := kzg.Open(ctx.domain, poly, zFr, ctx.commitKey, ctx.nbTasks)
	if err != nil {
		return Proof{}, Scalar{}, err
	}

	return Proof(proof.QuotientCommitment.Bytes()), Scalar(proof.ClaimedValue.Bytes()), nil
}

// ProveForBlob opens the blob's polynomial at the Fiat–Shamir challenge
// derived from (blob, commitment). The commitment is decoded only to reject
// encodings outside the G1 subgroup; whether it actually commits to the blob
// is not checked here.
func (ctx *Context) ProveForBlob(blob Blob, commitment Commitment) (Proof, error) {
	poly, err := ctx.deserializeBlob(blob, ctx.nbTasks)
	if err != nil {
		return Proof{}, err
	}

	if _, err := deserializeCommitment(commitment); err != nil {
		return Proof{}, err
	}

	challenge := ctx.computeChallenge(blob, commitment)

	proof, err := kzg.Open(ctx.domain, poly, challenge, ctx.commitKey, ctx.nbTasks)
	if err != nil {
		return Proof{}, err
	}

	return Proof(proof.QuotientCommitment.Bytes()), nil
}
