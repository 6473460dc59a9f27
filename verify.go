package ethkzg

import (
	"github.com/consensys/eth-kzg/internal/kzg"
)

// Verify checks that proof opens commitment at the Fiat–Shamir challenge
// derived from (blob, commitment) to the blob's own evaluation there.
//
// A malformed blob, commitment or proof encoding yields the corresponding
// decode error; a well-formed proof that fails the pairing check yields
// ErrVerifyFailed. Callers can tell the two apart with errors.Is.
func (ctx *Context) Verify(blob Blob, commitment Commitment, proof Proof) error {
	poly, err := ctx.deserializeBlob(blob, ctx.nbTasks)
	if err != nil {
		return err
	}

	comm, err := deserializeCommitment(commitment)
	if err != nil {
		return err
	}

	quotient, err := deserializeProof(proof)
	if err != nil {
		return err
	}

	challenge := ctx.computeChallenge(blob, commitment)

	y, _, err := ctx.domain.EvaluateLagrangePolynomial(poly, challenge)
	if err != nil {
		return err
	}

	openingProof := kzg.OpeningProof{
		QuotientCommitment: quotient,
		InputPoint:         challenge,
		ClaimedValue:       *y,
	}
	return kzg.Verify(&comm, &openingProof, ctx.openKey)
}

// VerifyProof checks that proof opens commitment at the caller-supplied
// challenge z to the claimed value y. This is the point-evaluation shape used
// by the EIP-4844 precompile.
func (ctx *Context) VerifyProof(commitment Commitment, z, y Scalar, proof Proof) error {
	comm, err := deserializeCommitment(commitment)
	if err != nil {
		return err
	}

	quotient, err := deserializeProof(proof)
	if err != nil {
		return err
	}

	zFr, err := deserializeScalar(z)
	if err != nil {
		return err
	}

	yFr, err := deserializeScalar(y)
	if err != nil {
		return err
	}

	openingProof := kzg.OpeningProof{
		QuotientCommitment: quotient,
		InputPoint:         zFr,
		ClaimedValue:       yFr,
	}
	return kzg.Verify(&comm, &openingProof, ctx.openKey)
}
