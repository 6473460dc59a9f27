package kzg

import (
	"errors"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr/fft"
)

var ErrDomainSize = errors.New("domain size must be a power of two, at least 2")

// Domain is the evaluation domain: the N-th roots of unity of the scalar
// field in bit-reversal-permuted order, together with the inverse of N.
//
// A Domain is immutable after construction and safe for concurrent use.
type Domain struct {
	// Cardinality is N, the number of evaluations of a polynomial.
	Cardinality uint64

	// CardinalityInv is 1/N in the scalar field.
	CardinalityInv fr.Element

	// Roots are the N-th roots of unity, bit-reversal permuted.
	Roots []fr.Element
}

// NewDomain builds the evaluation domain of the given cardinality.
// The roots are generated in ascending order of powers of the subgroup
// generator, then bit-reversal permuted.
func NewDomain(cardinality uint64) (*Domain, error) {
	if cardinality < 2 || cardinality&(cardinality-1) != 0 {
		return nil, ErrDomainSize
	}

	fftDomain := fft.NewDomain(cardinality)

	d := &Domain{
		Cardinality:    cardinality,
		CardinalityInv: fftDomain.CardinalityInv,
		Roots:          make([]fr.Element, cardinality),
	}
	d.Roots[0].SetOne()
	for i := uint64(1); i < cardinality; i++ {
		d.Roots[i].Mul(&d.Roots[i-1], &fftDomain.Generator)
	}
	fft.BitReverse(d.Roots)

	return d, nil
}

// NewDomainFromRoots wraps an already bit-reversal-permuted roots slice,
// deriving the cardinality inverse.
func NewDomainFromRoots(roots []fr.Element) (*Domain, error) {
	n := uint64(len(roots))
	if n < 2 || n&(n-1) != 0 {
		return nil, ErrDomainSize
	}

	d := &Domain{
		Cardinality: n,
		Roots:       roots,
	}
	d.CardinalityInv.SetUint64(n)
	d.CardinalityInv.Inverse(&d.CardinalityInv)

	return d, nil
}

// EvaluateLagrangePolynomial evaluates a polynomial in evaluation form at an
// arbitrary point z using the barycentric formula
//
//	p(z) = (zᴺ - 1)/N · Σᵢ pᵢ·ωᵢ/(z - ωᵢ)
//
// If z is one of the roots of unity the formula divides by zero; in that case
// the stored evaluation is returned directly, together with the index of the
// matching root. The index is -1 when z is outside the domain.
//
// The in-domain check is fused with the batch inversion of the denominators
// so both cases share one pass over the domain.
func (d *Domain) EvaluateLagrangePolynomial(p Polynomial, z fr.Element) (*fr.Element, int, error) {
	if uint64(len(p)) != d.Cardinality {
		return nil, -1, ErrPolynomialMismatchedSizeDomain
	}

	indexInDomain := -1
	denom := make([]fr.Element, d.Cardinality)
	for i := range denom {
		denom[i].Sub(&z, &d.Roots[i])
		if denom[i].IsZero() && indexInDomain == -1 {
			indexInDomain = i
		}
	}

	if indexInDomain != -1 {
		y := p[indexInDomain]
		return &y, indexInDomain, nil
	}

	denom = fr.BatchInvert(denom)

	var y, tmp fr.Element
	for i := range p {
		tmp.Mul(&p[i], &d.Roots[i])
		tmp.Mul(&tmp, &denom[i])
		y.Add(&y, &tmp)
	}

	// (zᴺ - 1)/N
	var zPowN, one fr.Element
	one.SetOne()
	zPowN.Exp(z, big.NewInt(int64(d.Cardinality)))
	zPowN.Sub(&zPowN, &one)
	zPowN.Mul(&zPowN, &d.CardinalityInv)

	y.Mul(&y, &zPowN)
	return &y, -1, nil
}
