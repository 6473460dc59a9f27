// Package kzg implements the field and point level KZG commitment engine:
// commitments to polynomials in evaluation form, opening proofs at arbitrary
// points, and single/batched pairing-based verification.
//
// The commit key holds the structured reference string in Lagrange form, so a
// commitment is a single multi-scalar multiplication against the polynomial's
// evaluations; no basis conversion is ever performed at commit time.
package kzg

import (
	"errors"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

var (
	ErrInvalidPolynomialSize          = errors.New("invalid polynomial size: must match the commit key")
	ErrPolynomialMismatchedSizeDomain = errors.New("polynomial size does not match domain cardinality")
	ErrVerifyOpeningProof             = errors.New("the pairing check failed: the opening proof is invalid")
	ErrInvalidNumDigests              = errors.New("number of commitments does not match number of proofs")
)

// Polynomial in evaluation form over the domain, bit-reversal permuted like
// the domain roots.
type Polynomial = []fr.Element

// Commitment to a polynomial: [p(τ)]G₁.
type Commitment = bls12381.G1Affine

// CommitKey holds the SRS G₁ points in Lagrange (evaluation) form,
// bit-reversal permuted.
type CommitKey struct {
	G1 []bls12381.G1Affine
}

// OpeningKey holds the points needed to verify opening proofs. GenG1 and
// GenG2 are the canonical curve generators.
type OpeningKey struct {
	GenG1 bls12381.G1Affine
	GenG2 bls12381.G2Affine
	// AlphaG2 is [τ]G₂, the degree-1 element of the monomial G₂ SRS.
	AlphaG2 bls12381.G2Affine
}

// OpeningProof is the claim that a committed polynomial evaluates to
// ClaimedValue at InputPoint.
type OpeningProof struct {
	// QuotientCommitment commits to (p(X) - p(z))/(X - z).
	QuotientCommitment bls12381.G1Affine

	InputPoint   fr.Element
	ClaimedValue fr.Element
}

// Commit computes the commitment [p(τ)]G₁ as an MSM of the Lagrange commit
// key by the polynomial's evaluations.
func Commit(p Polynomial, ck *CommitKey, nbTasks int) (*Commitment, error) {
	if len(p) == 0 || len(p) > len(ck.G1) {
		return nil, ErrInvalidPolynomialSize
	}

	var res Commitment
	_, err := res.MultiExp(ck.G1[:len(p)], p, ecc.MultiExpConfig{NbTasks: nbTasks})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Open evaluates p at z and commits to the quotient (p(X) - p(z))/(X - z),
// producing an opening proof.
func Open(domain *Domain, p Polynomial, z fr.Element, ck *CommitKey, nbTasks int) (OpeningProof, error) {
	if len(p) == 0 || len(p) > len(ck.G1) {
		return OpeningProof{}, ErrInvalidPolynomialSize
	}

	y, indexInDomain, err := domain.EvaluateLagrangePolynomial(p, z)
	if err != nil {
		return OpeningProof{}, err
	}

	res := OpeningProof{
		InputPoint:   z,
		ClaimedValue: *y,
	}

	quotient, err := divideByLinearOnDomain(domain, p, indexInDomain, res.ClaimedValue, z)
	if err != nil {
		return OpeningProof{}, err
	}

	qComm, err := Commit(quotient, ck, nbTasks)
	if err != nil {
		return OpeningProof{}, err
	}
	res.QuotientCommitment.Set(qComm)

	return res, nil
}

// divideByLinearOnDomain computes the evaluation form of
// (p(X) - y)/(X - z), dispatching on whether z is a domain element
// (indexInDomain >= 0) or not.
func divideByLinearOnDomain(domain *Domain, p Polynomial, indexInDomain int, y, z fr.Element) (Polynomial, error) {
	if domain.Cardinality != uint64(len(p)) {
		return nil, ErrPolynomialMismatchedSizeDomain
	}

	if indexInDomain != -1 {
		return divideOnDomain(domain, p, indexInDomain)
	}

	// generic case: qᵢ = (pᵢ - y)/(ωᵢ - z)
	quotient := make([]fr.Element, len(p))
	for i := range quotient {
		quotient[i].Sub(&domain.Roots[i], &z)
	}
	quotient = fr.BatchInvert(quotient)

	var numer fr.Element
	for i := range quotient {
		numer.Sub(&p[i], &y)
		quotient[i].Mul(&quotient[i], &numer)
	}
	return quotient, nil
}

// divideOnDomain handles the case z = ωₘ: the quotient at index m is the sum
//
//	qₘ = Σ_{j≠m} (pⱼ - y)·ωⱼ / (ωₘ·(ωₘ - ωⱼ))
//
// and qⱼ = (pⱼ - y)/(ωⱼ - ωₘ) elsewhere.
// See compute_quotient_eval_within_domain in the consensus specs.
func divideOnDomain(domain *Domain, p Polynomial, index int) (Polynomial, error) {
	y := p[index]
	z := domain.Roots[index]
	var invZ fr.Element
	invZ.Inverse(&z)

	rootsMinusZ := make([]fr.Element, domain.Cardinality)
	for i := range rootsMinusZ {
		rootsMinusZ[i].Sub(&domain.Roots[i], &z)
	}
	invRootsMinusZ := fr.BatchInvert(rootsMinusZ)

	quotient := make([]fr.Element, domain.Cardinality)
	for j := range quotient {
		if j == index {
			continue
		}

		// qⱼ = (pⱼ - y)/(ωⱼ - ωₘ)
		var qj fr.Element
		qj.Sub(&p[j], &y)
		qj.Mul(&qj, &invRootsMinusZ[j])
		quotient[j] = qj

		// contribution of j to qₘ: -qⱼ·ωⱼ/ωₘ
		var qmj fr.Element
		qmj.Neg(&qj)
		qmj.Mul(&qmj, &domain.Roots[j])
		qmj.Mul(&qmj, &invZ)

		quotient[index].Add(&quotient[index], &qmj)
	}

	return quotient, nil
}

// Verify checks the pairing relation
//
//	e(C - [y]G₁, -G₂) · e(W, [τ - z]G₂) == 1
//
// A mathematically invalid proof yields ErrVerifyOpeningProof; any other
// error is a computational fault.
func Verify(commitment *Commitment, proof *OpeningProof, openKey *OpeningKey) error {
	// [-1]G₂
	var negG2 bls12381.G2Affine
	negG2.Neg(&openKey.GenG2)

	// [τ - z]G₂
	var genG2Jac, zG2Jac, tauMinusZG2Jac bls12381.G2Jac
	genG2Jac.FromAffine(&openKey.GenG2)
	var zBig big.Int
	proof.InputPoint.BigInt(&zBig)
	zG2Jac.ScalarMultiplication(&genG2Jac, &zBig)
	tauMinusZG2Jac.FromAffine(&openKey.AlphaG2)
	tauMinusZG2Jac.SubAssign(&zG2Jac)

	var tauMinusZG2 bls12381.G2Affine
	tauMinusZG2.FromJacobian(&tauMinusZG2Jac)

	// C - [y]G₁
	var yG1Jac, cMinusYJac bls12381.G1Jac
	var yBig big.Int
	proof.ClaimedValue.BigInt(&yBig)
	yG1Jac.ScalarMultiplicationBase(&yBig)
	cMinusYJac.FromAffine(commitment)
	cMinusYJac.SubAssign(&yG1Jac)

	var cMinusY bls12381.G1Affine
	cMinusY.FromJacobian(&cMinusYJac)

	check, err := bls12381.PairingCheck(
		[]bls12381.G1Affine{cMinusY, proof.QuotientCommitment},
		[]bls12381.G2Affine{negG2, tauMinusZG2},
	)
	if err != nil {
		return err
	}
	if !check {
		return ErrVerifyOpeningProof
	}
	return nil
}

// BatchVerifyMultiPoints verifies a batch of opening proofs with a single
// pairing check, folding the individual checks with the powers of the
// blinding scalar r. The weights make the aggregate sound: without them a set
// of individually invalid proofs whose errors cancel would pass.
//
// r must be unpredictable to whoever produced the commitments; deriving it is
// the caller's responsibility.
func BatchVerifyMultiPoints(commitments []Commitment, proofs []OpeningProof, r fr.Element, openKey *OpeningKey) error {
	if len(commitments) != len(proofs) {
		return ErrInvalidNumDigests
	}
	batchSize := len(commitments)

	// nothing to check
	if batchSize == 0 {
		return nil
	}
	if batchSize == 1 {
		return Verify(&commitments[0], &proofs[0], openKey)
	}

	// powers r⁰ .. r^(n-1); a Vandermonde system, so the equations stay
	// linearly independent
	rPowers := ComputePowers(r, uint(batchSize))

	// Σ rⁱ·Wᵢ
	var foldedQuotients bls12381.G1Affine
	quotients := make([]bls12381.G1Affine, batchSize)
	for i := 0; i < batchSize; i++ {
		quotients[i].Set(&proofs[i].QuotientCommitment)
	}
	config := ecc.MultiExpConfig{}
	_, err := foldedQuotients.MultiExp(quotients, rPowers, config)
	if err != nil {
		return err
	}

	// Σ rⁱ·Cᵢ and Σ rⁱ·yᵢ
	evaluations := make([]fr.Element, batchSize)
	for i := 0; i < batchSize; i++ {
		evaluations[i].Set(&proofs[i].ClaimedValue)
	}
	foldedCommitments, foldedEvaluations, err := fold(commitments, evaluations, rPowers)
	if err != nil {
		return err
	}

	// [Σ rⁱ·yᵢ]G₁
	var foldedEvaluationsCommit bls12381.G1Affine
	var foldedEvaluationsBig big.Int
	foldedEvaluations.BigInt(&foldedEvaluationsBig)
	foldedEvaluationsCommit.ScalarMultiplication(&openKey.GenG1, &foldedEvaluationsBig)

	// F = Σ rⁱ·Cᵢ - [Σ rⁱ·yᵢ]G₁
	foldedCommitments.Sub(&foldedCommitments, &foldedEvaluationsCommit)

	// Σ rⁱ·zᵢ·Wᵢ
	var foldedPointsQuotients bls12381.G1Affine
	for i := 0; i < batchSize; i++ {
		rPowers[i].Mul(&rPowers[i], &proofs[i].InputPoint)
	}
	_, err = foldedPointsQuotients.MultiExp(quotients, rPowers, config)
	if err != nil {
		return err
	}

	// e(F + Σ rⁱ·zᵢ·Wᵢ, G₂) · e(-Σ rⁱ·Wᵢ, [τ]G₂) == 1
	foldedCommitments.Add(&foldedCommitments, &foldedPointsQuotients)
	foldedQuotients.Neg(&foldedQuotients)

	check, err := bls12381.PairingCheck(
		[]bls12381.G1Affine{foldedCommitments, foldedQuotients},
		[]bls12381.G2Affine{openKey.GenG2, openKey.AlphaG2},
	)
	if err != nil {
		return err
	}
	if !check {
		return ErrVerifyOpeningProof
	}
	return nil
}

// fold computes the MSM of commitments by factors and the dot product of
// evaluations by factors.
func fold(commitments []Commitment, evaluations, factors []fr.Element) (Commitment, fr.Element, error) {
	batchSize := len(commitments)

	var foldedEvaluations, tmp fr.Element
	for i := 0; i < batchSize; i++ {
		tmp.Mul(&evaluations[i], &factors[i])
		foldedEvaluations.Add(&foldedEvaluations, &tmp)
	}

	var foldedCommitments Commitment
	_, err := foldedCommitments.MultiExp(commitments, factors, ecc.MultiExpConfig{})
	return foldedCommitments, foldedEvaluations, err
}

// ComputePowers returns [1, x, x², ..., x^(n-1)].
func ComputePowers(x fr.Element, n uint) []fr.Element {
	if n == 0 {
		return []fr.Element{}
	}
	powers := make([]fr.Element, n)
	powers[0].SetOne()
	for i := uint(1); i < n; i++ {
		powers[i].Mul(&powers[i-1], &x)
	}
	return powers
}
