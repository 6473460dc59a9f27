package trustedsetup

import (
	"bytes"
	"encoding/binary"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func newTestSetup(t *testing.T) *Setup {
	t.Helper()
	s, err := NewInsecure(4, big.NewInt(1337))
	require.NoError(t, err)
	return s
}

func encode(t *testing.T, s *Setup) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Store(&buf, s))
	return buf.Bytes()
}

func TestRoundTrip(t *testing.T) {
	s := newTestSetup(t)
	require.NoError(t, s.Validate())

	data := encode(t, s)

	loaded, err := Load(bytes.NewReader(data))
	require.NoError(t, err)
	require.Empty(t, cmp.Diff(s, loaded))

	// byte-for-byte: re-encoding the decoded setup reproduces the input
	require.True(t, bytes.Equal(data, encode(t, loaded)))
}

func TestFileRoundTrip(t *testing.T) {
	s := newTestSetup(t)
	path := filepath.Join(t.TempDir(), "setup.bin")

	require.NoError(t, StoreFile(path, s))
	loaded, err := LoadFile(path)
	require.NoError(t, err)
	require.Empty(t, cmp.Diff(s, loaded))
}

func TestAlignment(t *testing.T) {
	data := encode(t, newTestSetup(t))

	// header(64) + schema(96) + pad(32) + G1(4×96) + G2(65×192) + roots(4×32)
	require.Len(t, data, 192+384+12480+128)

	// the schema padding is zeroed and the first data array starts on a
	// 64-byte boundary
	require.Equal(t, make([]byte, 32), data[160:192])
}

func TestHeaderValidation(t *testing.T) {
	valid := encode(t, newTestSetup(t))

	corrupt := func(mutate func([]byte)) []byte {
		data := append([]byte{}, valid...)
		mutate(data)
		return data
	}

	cases := []struct {
		name   string
		mutate func([]byte)
		want   error
	}{
		{"bad magic", func(b []byte) { b[0] ^= 0xff }, ErrBadMagic},
		{"unsupported major version", func(b []byte) { copy(b[12:16], "v2.0") }, ErrUnsupportedVersion},
		{"garbage version", func(b []byte) { copy(b[12:16], "x1.0") }, ErrUnsupportedVersion},
		{"wrong protocol", func(b []byte) { copy(b[16:48], "ethereum_electra_das") }, ErrWrongProtocol},
		{"wrong curve", func(b []byte) { copy(b[48:63], "bn254\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00") }, ErrWrongCurve},
		{"wrong schema count", func(b []byte) { b[63] = 2 }, ErrBadSchema},
		{"unknown field kind", func(b []byte) { copy(b[64:79], "srs_projective\x00") }, ErrBadSchema},
		{"wrong group tag", func(b []byte) { copy(b[64+15:64+17], "g2") }, ErrBadSchema},
		{"wrong ordering tag", func(b []byte) { copy(b[64+17:64+20], "asc") }, ErrBadSchema},
		{"wrong element size", func(b []byte) { b[64+20] = 95 }, ErrBadSchema},
		{"count not a power of two", func(b []byte) { b[64+24] = 3 }, ErrBadSchema},
		{"count above maximum", func(b []byte) {
			binary.LittleEndian.PutUint64(b[64+24:64+32], maxArrayCount*2)
		}, ErrBadSchema},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(bytes.NewReader(corrupt(tc.mutate)))
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestMetadataCheckedBeforeBulkData(t *testing.T) {
	valid := encode(t, newTestSetup(t))

	// wrong curve with the file truncated right after the header: the
	// typed error must surface, not an IO error from the missing bulk data
	data := append([]byte{}, valid[:headerSize]...)
	copy(data[48:63], "bn254\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00")
	_, err := Load(bytes.NewReader(data))
	require.ErrorIs(t, err, ErrWrongCurve)

	// valid metadata but truncated data is an IO-level failure
	_, err = Load(bytes.NewReader(valid[:len(valid)-1]))
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrBadSchema)
}

func TestOversizedCountRejected(t *testing.T) {
	valid := encode(t, newTestSetup(t))

	// header and schema only, declaring an absurd Lagrange count; this must
	// fail at the schema check, never reach an allocation
	for _, count := range []uint64{1 << 63, maxArrayCount * 2} {
		data := append([]byte{}, valid[:headerSize+3*schemaItemSize]...)
		binary.LittleEndian.PutUint64(data[headerSize+24:headerSize+32], count)
		_, err := Load(bytes.NewReader(data))
		require.ErrorIs(t, err, ErrBadSchema)
	}
}

func TestTrailingDataRejected(t *testing.T) {
	valid := encode(t, newTestSetup(t))

	_, err := Load(bytes.NewReader(append(valid, 0x00)))
	require.ErrorIs(t, err, ErrBadSchema)
}

func TestPointValidation(t *testing.T) {
	valid := encode(t, newTestSetup(t))

	// first G1 array byte lives at offset 192; nudging a coordinate limb
	// produces a point off the curve
	data := append([]byte{}, valid...)
	data[headerSize+3*schemaItemSize+32] ^= 0x01
	_, err := Load(bytes.NewReader(data))
	require.ErrorIs(t, err, ErrPointValidation)
}

func TestRootsValidation(t *testing.T) {
	s := newTestSetup(t)
	s.Roots[2].SetUint64(42)
	data := encode(t, s)

	_, err := Load(bytes.NewReader(data))
	require.ErrorIs(t, err, ErrRootsMismatch)
}

func TestGeneratorSanityCheck(t *testing.T) {
	s := newTestSetup(t)
	// [τ]G₂ is a valid subgroup point but not the generator
	s.G2Monomial[0] = s.G2Monomial[1]
	data := encode(t, s)

	_, err := Load(bytes.NewReader(data))
	require.ErrorIs(t, err, ErrGeneratorMismatch)
}

func TestFingerprint(t *testing.T) {
	s1 := newTestSetup(t)
	s2 := newTestSetup(t)
	require.Equal(t, s1.Fingerprint(), s2.Fingerprint())

	s3, err := NewInsecure(4, big.NewInt(1338))
	require.NoError(t, err)
	require.NotEqual(t, s1.Fingerprint(), s3.Fingerprint())
}

func TestInsecureSetupShape(t *testing.T) {
	s := newTestSetup(t)
	require.EqualValues(t, 4, s.Size())
	require.Len(t, s.G2Monomial, numG2Points)
	require.Len(t, s.Roots, 4)
	require.NoError(t, s.Validate())

	_, err := NewInsecure(3, big.NewInt(1337))
	require.ErrorIs(t, err, ErrBadSchema)
}

func TestInsecureLagrangePointOrdering(t *testing.T) {
	s := newTestSetup(t)
	_, _, g1Gen, _ := bls12381.Generators()

	// Σ λᵢ(τ)·G₁ = G₁ since the Lagrange basis sums to one
	ones := make([]fr.Element, len(s.G1Lagrange))
	for i := range ones {
		ones[i].SetOne()
	}
	var sum bls12381.G1Affine
	_, err := sum.MultiExp(s.G1Lagrange, ones, ecc.MultiExpConfig{})
	require.NoError(t, err)
	require.True(t, sum.Equal(&g1Gen))

	// Σ ωᵢ·λᵢ(τ)·G₁ = [τ]G₁, the polynomial X evaluated at τ. This only
	// holds when the points and the roots share the same permutation.
	var weighted, tauG1 bls12381.G1Affine
	_, err = weighted.MultiExp(s.G1Lagrange, s.Roots, ecc.MultiExpConfig{})
	require.NoError(t, err)
	tauG1.ScalarMultiplication(&g1Gen, big.NewInt(1337))
	require.True(t, weighted.Equal(&tauG1))
}
