package trustedsetup

import (
	"fmt"
	"math/big"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr/fft"

	"github.com/consensys/eth-kzg/internal/kzg"
)

// NewInsecure generates a deterministic setup of the given size from a known
// secret tau. Since the secret is known, the resulting setup is only suitable
// for tests; production code must load the output of a real ceremony.
func NewInsecure(size uint64, tau *big.Int) (*Setup, error) {
	if !isPowerOfTwo(size) {
		return nil, fmt.Errorf("%w: size %d is not a power of two", ErrBadSchema, size)
	}

	var tauFr fr.Element
	tauFr.SetBigInt(tau)

	_, _, g1Gen, g2Gen := bls12381.Generators()

	// the Lagrange scalars λᵢ(τ) are the inverse FFT of (1, τ, …, τᴺ⁻¹).
	// FFTInverse with DIF input ordering leaves them bit-reversal permuted,
	// which is exactly the storage convention, aligned with the roots.
	lagrangeScalars := kzg.ComputePowers(tauFr, uint(size))
	fftDomain := fft.NewDomain(size)
	fftDomain.FFTInverse(lagrangeScalars, fft.DIF)

	g1Lagrange := bls12381.BatchScalarMultiplicationG1(&g1Gen, lagrangeScalars)

	g2Monomial := bls12381.BatchScalarMultiplicationG2(&g2Gen, kzg.ComputePowers(tauFr, numG2Points))

	domain, err := kzg.NewDomain(size)
	if err != nil {
		return nil, err
	}

	return &Setup{
		G1Lagrange:     g1Lagrange,
		G2Monomial:     g2Monomial,
		Roots:          domain.Roots,
		CardinalityInv: domain.CardinalityInv,
	}, nil
}
