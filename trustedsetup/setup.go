// Package trustedsetup loads, stores and validates the structured reference
// string (SRS) produced by the KZG ceremony, in the binary interchange
// format shared with other implementations.
//
// A Setup is loaded once, validated, and then shared read-only across all
// engine calls for the lifetime of the process.
package trustedsetup

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/big"
	"sync/atomic"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fp"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"golang.org/x/crypto/blake2b"

	"github.com/consensys/eth-kzg/internal/kzg"
	"github.com/consensys/eth-kzg/internal/parallel"
)

// Setup is the in-memory trusted setup: the SRS plus the evaluation domain.
// It is immutable after Load and safe for concurrent use.
type Setup struct {
	// G1Lagrange is [λᵢ(τ)]G₁ for the Lagrange basis over the evaluation
	// domain, bit-reversal permuted. Its length is the polynomial size N.
	G1Lagrange []bls12381.G1Affine

	// G2Monomial is [τᵏ]G₂ in ascending powers; G2Monomial[0] is the
	// canonical G₂ generator and G2Monomial[1] is [τ]G₂.
	G2Monomial []bls12381.G2Affine

	// Roots are the N-th roots of unity, bit-reversal permuted.
	Roots []fr.Element

	// CardinalityInv is 1/N, derived at load time (not stored on disk).
	CardinalityInv fr.Element
}

// Size returns N, the number of evaluations of a committed polynomial.
func (s *Setup) Size() uint64 {
	return uint64(len(s.G1Lagrange))
}

// Validate checks every point of the setup: G1/G2 points on curve and in the
// correct subgroup (in parallel, the bulk of the work), the roots against the
// canonical evaluation domain, and the G2 generator convention.
func (s *Setup) Validate() error {
	if uint64(len(s.Roots)) != s.Size() || !isPowerOfTwo(s.Size()) {
		return fmt.Errorf("%w: %d G1 points vs %d roots", ErrBadSchema, len(s.G1Lagrange), len(s.Roots))
	}
	if len(s.G2Monomial) < 2 {
		return fmt.Errorf("%w: need at least 2 G2 points, got %d", ErrBadSchema, len(s.G2Monomial))
	}

	var nbErrs uint64
	parallel.Execute(len(s.G1Lagrange), func(start, end int) {
		for i := start; i < end; i++ {
			if !s.G1Lagrange[i].IsOnCurve() || !s.G1Lagrange[i].IsInSubGroup() {
				atomic.AddUint64(&nbErrs, 1)
				return
			}
		}
	})
	for i := range s.G2Monomial {
		if !s.G2Monomial[i].IsOnCurve() || !s.G2Monomial[i].IsInSubGroup() {
			nbErrs++
		}
	}
	if nbErrs > 0 {
		return ErrPointValidation
	}

	domain, err := kzg.NewDomain(s.Size())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadSchema, err)
	}
	for i := range s.Roots {
		if !s.Roots[i].Equal(&domain.Roots[i]) {
			return ErrRootsMismatch
		}
	}

	_, _, _, g2Gen := bls12381.Generators()
	if !s.G2Monomial[0].Equal(&g2Gen) {
		return ErrGeneratorMismatch
	}

	return nil
}

// Fingerprint returns a digest identifying the setup, computed over its
// canonical serialized form. Intended for operator-facing logs and sanity
// checks, not for consensus.
func (s *Setup) Fingerprint() [32]byte {
	var buf bytes.Buffer
	if err := Store(&buf, s); err != nil {
		// Store to a buffer only fails on a malformed Setup
		panic(err)
	}
	return blake2b.Sum256(buf.Bytes())
}

// raw limb encoding helpers. Points are stored as affine coordinates,
// field-major, little-endian 64-bit limbs, Montgomery form.

var (
	fpModulusLimbs [6]uint64
	frModulusLimbs [4]uint64
)

func init() {
	fillModulusLimbs(fp.Modulus(), fpModulusLimbs[:])
	fillModulusLimbs(fr.Modulus(), frModulusLimbs[:])
}

func fillModulusLimbs(m *big.Int, dst []uint64) {
	buf := make([]byte, len(dst)*8)
	m.FillBytes(buf)
	for i := range dst {
		dst[i] = binary.BigEndian.Uint64(buf[(len(dst)-1-i)*8:])
	}
}

func limbsSmallerThanModulus(limbs, modulus []uint64) bool {
	for i := len(limbs) - 1; i >= 0; i-- {
		if limbs[i] < modulus[i] {
			return true
		}
		if limbs[i] > modulus[i] {
			return false
		}
	}
	return false
}

func marshalFp(dst []byte, e *fp.Element) {
	for i := 0; i < 6; i++ {
		binary.LittleEndian.PutUint64(dst[i*8:], e[i])
	}
}

func unmarshalFp(e *fp.Element, src []byte) error {
	for i := 0; i < 6; i++ {
		e[i] = binary.LittleEndian.Uint64(src[i*8:])
	}
	if !limbsSmallerThanModulus(e[:], fpModulusLimbs[:]) {
		return fmt.Errorf("%w: coordinate limbs not reduced", ErrPointValidation)
	}
	return nil
}

func marshalFr(dst []byte, e *fr.Element) {
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint64(dst[i*8:], e[i])
	}
}

func unmarshalFr(e *fr.Element, src []byte) error {
	for i := 0; i < 4; i++ {
		e[i] = binary.LittleEndian.Uint64(src[i*8:])
	}
	if !limbsSmallerThanModulus(e[:], frModulusLimbs[:]) {
		return fmt.Errorf("%w: scalar limbs not reduced", ErrRootsMismatch)
	}
	return nil
}

func marshalG1(dst []byte, p *bls12381.G1Affine) {
	marshalFp(dst[0:48], &p.X)
	marshalFp(dst[48:96], &p.Y)
}

func unmarshalG1(p *bls12381.G1Affine, src []byte) error {
	if err := unmarshalFp(&p.X, src[0:48]); err != nil {
		return err
	}
	return unmarshalFp(&p.Y, src[48:96])
}

func marshalG2(dst []byte, p *bls12381.G2Affine) {
	marshalFp(dst[0:48], &p.X.A0)
	marshalFp(dst[48:96], &p.X.A1)
	marshalFp(dst[96:144], &p.Y.A0)
	marshalFp(dst[144:192], &p.Y.A1)
}

func unmarshalG2(p *bls12381.G2Affine, src []byte) error {
	if err := unmarshalFp(&p.X.A0, src[0:48]); err != nil {
		return err
	}
	if err := unmarshalFp(&p.X.A1, src[48:96]); err != nil {
		return err
	}
	if err := unmarshalFp(&p.Y.A0, src[96:144]); err != nil {
		return err
	}
	return unmarshalFp(&p.Y.A1, src[144:192])
}
