package ethkzg

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/stretchr/testify/require"
)

func TestComputeChallengeDeterministic(t *testing.T) {
	ctx := newMinimalCtx(t)
	blob := randomBlob(t, ctx)
	commitment, err := ctx.Commit(blob)
	require.NoError(t, err)

	c1 := ctx.computeChallenge(blob, commitment)
	c2 := ctx.computeChallenge(blob, commitment)
	require.True(t, c1.Equal(&c2))
}

func TestComputeChallengeSensitivity(t *testing.T) {
	ctx := newMinimalCtx(t)
	blob := randomBlob(t, ctx)
	commitment, err := ctx.Commit(blob)
	require.NoError(t, err)

	base := ctx.computeChallenge(blob, commitment)

	tamperedBlob := append(Blob{}, blob...)
	tamperedBlob[0] ^= 0x01
	c := ctx.computeChallenge(tamperedBlob, commitment)
	require.False(t, base.Equal(&c), "challenge must depend on the blob")

	tamperedComm := commitment
	tamperedComm[5] ^= 0x01
	c = ctx.computeChallenge(blob, tamperedComm)
	require.False(t, base.Equal(&c), "challenge must depend on the commitment")
}

func TestDeriveBlindingScalar(t *testing.T) {
	challenges := make([]fr.Element, 3)
	for i := range challenges {
		challenges[i].SetUint64(uint64(i + 1))
	}

	// primary path: big-endian reduction of the seed
	var seed [32]byte
	seed[31] = 7
	r := deriveBlindingScalar(seed, challenges)
	var want fr.Element
	want.SetUint64(7)
	require.True(t, r.Equal(&want))

	// degenerate path: all-zero seed falls back to the challenge
	// transcript, deterministically
	r1 := deriveBlindingScalar([32]byte{}, challenges)
	r2 := deriveBlindingScalar([32]byte{}, challenges)
	require.True(t, r1.Equal(&r2))
	require.False(t, r1.IsZero())

	// the fallback depends on the transcript
	challenges[1].SetUint64(42)
	r3 := deriveBlindingScalar([32]byte{}, challenges)
	require.False(t, r1.Equal(&r3))
}
