package ethkzg

import (
	"errors"
	"math/big"
	"runtime"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"

	"github.com/consensys/eth-kzg/internal/kzg"
	"github.com/consensys/eth-kzg/logger"
	"github.com/consensys/eth-kzg/trustedsetup"
)

// Context holds everything needed to create and verify proofs: the evaluation
// domain and the commit/opening keys derived from a trusted setup. It is
// immutable after construction and safe for concurrent use; the underlying
// setup is shared, never copied or mutated.
type Context struct {
	domain    *kzg.Domain
	commitKey *kzg.CommitKey
	openKey   *kzg.OpeningKey

	blobBytes int
	nbTasks   int
}

// Option configures a Context.
type Option func(*Context)

// WithNumGoRoutines caps the number of goroutines used by a single call for
// blob decoding, MSMs and batch preprocessing. Defaults to GOMAXPROCS.
func WithNumGoRoutines(n int) Option {
	return func(ctx *Context) {
		if n > 0 {
			ctx.nbTasks = n
		}
	}
}

// NewContext builds a Context from a loaded trusted setup. The setup is
// expected to have been validated by trustedsetup.Load; only its shape is
// re-checked here.
func NewContext(setup *trustedsetup.Setup, opts ...Option) (*Context, error) {
	if setup == nil {
		return nil, errors.New("nil trusted setup")
	}
	if len(setup.G2Monomial) < 2 || setup.Size() != uint64(len(setup.Roots)) {
		return nil, errors.New("malformed trusted setup")
	}

	domain := &kzg.Domain{
		Cardinality:    setup.Size(),
		CardinalityInv: setup.CardinalityInv,
		Roots:          setup.Roots,
	}

	_, _, g1Gen, g2Gen := bls12381.Generators()

	ctx := &Context{
		domain:    domain,
		commitKey: &kzg.CommitKey{G1: setup.G1Lagrange},
		openKey: &kzg.OpeningKey{
			GenG1:   g1Gen,
			GenG2:   g2Gen,
			AlphaG2: setup.G2Monomial[1],
		},
		blobBytes: int(setup.Size()) * BytesPerScalar,
		nbTasks:   runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(ctx)
	}

	log := logger.Logger()
	log.Debug().Uint64("size", setup.Size()).Int("nbTasks", ctx.nbTasks).Msg("kzg context created")

	return ctx, nil
}

// NewContext4096Insecure1337 builds a mainnet-sized context from the
// well-known test secret τ = 1337. Test use only.
func NewContext4096Insecure1337(opts ...Option) (*Context, error) {
	return newInsecureContext(ScalarsPerBlobMainnet, opts...)
}

// NewContextMinimalInsecure1337 builds a context for the minimal preset
// (N = 4) from the test secret τ = 1337. Test use only.
func NewContextMinimalInsecure1337(opts ...Option) (*Context, error) {
	return newInsecureContext(ScalarsPerBlobMinimal, opts...)
}

func newInsecureContext(size uint64, opts ...Option) (*Context, error) {
	setup, err := trustedsetup.NewInsecure(size, big.NewInt(1337))
	if err != nil {
		return nil, err
	}
	return NewContext(setup, opts...)
}

// Size returns N, the number of field elements per blob.
func (ctx *Context) Size() uint64 {
	return ctx.domain.Cardinality
}

// BlobBytes returns the expected byte length of a blob, N×32.
func (ctx *Context) BlobBytes() int {
	return ctx.blobBytes
}
