package trustedsetup

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/bits-and-blooms/bitset"
	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"golang.org/x/crypto/blake2b"

	"github.com/consensys/eth-kzg/internal/parallel"
	"github.com/consensys/eth-kzg/logger"
)

// schema item bit positions for presence tracking
const (
	bitLagrangeG1 = iota
	bitMonomialG2
	bitRootsUnity
	nbSchemaItems
)

// Load reads and fully validates a trusted setup. All header and schema
// metadata is checked before any bulk data is read, so a file for the wrong
// curve or protocol is rejected without allocating for its arrays.
func Load(r io.Reader) (*Setup, error) {
	log := logger.Logger().With().Str("component", "trustedsetup").Logger()
	start := time.Now()

	hasher, err := blake2b.New256(nil)
	if err != nil {
		return nil, err
	}
	tee := io.TeeReader(r, hasher)

	header := make([]byte, headerSize)
	if _, err := io.ReadFull(tee, header); err != nil {
		return nil, fmt.Errorf("trusted setup: reading header: %w", err)
	}
	nbItems, err := checkHeader(header)
	if err != nil {
		return nil, err
	}
	if nbItems != nbSchemaItems {
		return nil, fmt.Errorf("%w: expected %d schema items, got %d", ErrBadSchema, nbSchemaItems, nbItems)
	}

	schemaBytes := make([]byte, nbItems*schemaItemSize)
	if _, err := io.ReadFull(tee, schemaBytes); err != nil {
		return nil, fmt.Errorf("trusted setup: reading schema: %w", err)
	}

	items := make([]schemaItem, nbItems)
	byKind := make(map[string]schemaItem, nbItems)
	seen := bitset.New(nbSchemaItems)
	for i := range items {
		items[i] = unmarshalSchemaItem(schemaBytes[i*schemaItemSize:])
		if err := checkSchemaItem(items[i]); err != nil {
			return nil, err
		}
		var bit uint
		switch items[i].Kind {
		case kindLagrangeG1:
			bit = bitLagrangeG1
		case kindMonomialG2:
			bit = bitMonomialG2
		case kindRootsUnity:
			bit = bitRootsUnity
		}
		if seen.Test(bit) {
			return nil, fmt.Errorf("%w: duplicate field kind %q", ErrBadSchema, items[i].Kind)
		}
		seen.Set(bit)
		byKind[items[i].Kind] = items[i]
	}
	if seen.Count() != nbSchemaItems {
		return nil, fmt.Errorf("%w: missing field kinds", ErrBadSchema)
	}
	if byKind[kindLagrangeG1].Count != byKind[kindRootsUnity].Count {
		return nil, fmt.Errorf("%w: %d G1 points vs %d roots", ErrBadSchema,
			byKind[kindLagrangeG1].Count, byKind[kindRootsUnity].Count)
	}

	// metadata fully validated; read the data arrays, 64-byte aligned, in
	// schema order
	s := &Setup{}
	offset := uint64(headerSize + nbItems*schemaItemSize)
	for _, item := range items {
		if err := discard(tee, padding(offset)); err != nil {
			return nil, fmt.Errorf("trusted setup: reading alignment padding: %w", err)
		}
		offset += padding(offset)

		data := make([]byte, item.byteSize())
		if _, err := io.ReadFull(tee, data); err != nil {
			return nil, fmt.Errorf("trusted setup: reading %s: %w", item.Kind, err)
		}
		offset += item.byteSize()

		switch item.Kind {
		case kindLagrangeG1:
			s.G1Lagrange, err = parseG1Array(data, item.Count)
		case kindMonomialG2:
			s.G2Monomial, err = parseG2Array(data, item.Count)
		case kindRootsUnity:
			s.Roots, err = parseFrArray(data, item.Count)
		}
		if err != nil {
			return nil, err
		}
	}

	// the schema must account for every byte of the input
	var trailing [1]byte
	switch _, err := io.ReadFull(tee, trailing[:]); err {
	case io.EOF:
	case nil:
		return nil, fmt.Errorf("%w: trailing data after the last array", ErrBadSchema)
	default:
		return nil, fmt.Errorf("trusted setup: reading end of stream: %w", err)
	}

	s.CardinalityInv.SetUint64(s.Size())
	s.CardinalityInv.Inverse(&s.CardinalityInv)

	if err := s.Validate(); err != nil {
		return nil, err
	}

	log.Info().
		Uint64("size", s.Size()).
		Str("fingerprint", hex.EncodeToString(hasher.Sum(nil))).
		Dur("took", time.Since(start)).
		Msg("trusted setup loaded")

	return s, nil
}

// Store writes the setup in the canonical interchange form: schema items in
// the order srs_lagrange, srs_monomial, roots_unity, data arrays 64-byte
// aligned. Store(Load(b)) reproduces b byte for byte for canonical inputs.
func Store(w io.Writer, s *Setup) error {
	n := s.Size()
	if !isPowerOfTwo(n) || uint64(len(s.Roots)) != n || len(s.G2Monomial) != numG2Points {
		return fmt.Errorf("%w: setup shape %d/%d/%d", ErrBadSchema, len(s.G1Lagrange), len(s.G2Monomial), len(s.Roots))
	}

	items := []schemaItem{
		{Kind: kindLagrangeG1, Group: groupG1, Order: orderBitReverse, ElemSize: sizeG1Raw, Count: n},
		{Kind: kindMonomialG2, Group: groupG2, Order: orderAscending, ElemSize: sizeG2Raw, Count: numG2Points},
		{Kind: kindRootsUnity, Group: fieldFr, Order: orderBitReverse, ElemSize: sizeFrRaw, Count: n},
	}

	header := make([]byte, headerSize+len(items)*schemaItemSize)
	copy(header[0:12], formatMagic)
	copy(header[12:16], formatVersion)
	copy(header[16:48], formatProtocol)
	copy(header[48:63], formatCurve)
	header[63] = byte(len(items))
	for i := range items {
		items[i].marshal(header[headerSize+i*schemaItemSize:])
	}
	if _, err := w.Write(header); err != nil {
		return err
	}

	offset := uint64(len(header))
	writeArray := func(size uint64, marshal func([]byte)) error {
		if err := writeZeros(w, padding(offset)); err != nil {
			return err
		}
		offset += padding(offset)
		data := make([]byte, size)
		marshal(data)
		if _, err := w.Write(data); err != nil {
			return err
		}
		offset += size
		return nil
	}

	if err := writeArray(items[0].byteSize(), func(data []byte) {
		for i := range s.G1Lagrange {
			marshalG1(data[i*sizeG1Raw:], &s.G1Lagrange[i])
		}
	}); err != nil {
		return err
	}
	if err := writeArray(items[1].byteSize(), func(data []byte) {
		for i := range s.G2Monomial {
			marshalG2(data[i*sizeG2Raw:], &s.G2Monomial[i])
		}
	}); err != nil {
		return err
	}
	return writeArray(items[2].byteSize(), func(data []byte) {
		for i := range s.Roots {
			marshalFr(data[i*sizeFrRaw:], &s.Roots[i])
		}
	})
}

// LoadFile loads a trusted setup from a file.
func LoadFile(path string) (*Setup, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(bufio.NewReader(f))
}

// StoreFile writes a trusted setup to a file.
func StoreFile(path string, s *Setup) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := Store(w, s); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func parseG1Array(data []byte, count uint64) ([]bls12381.G1Affine, error) {
	points := make([]bls12381.G1Affine, count)
	var nbErrs uint64
	parallel.Execute(int(count), func(start, end int) {
		for i := start; i < end; i++ {
			if err := unmarshalG1(&points[i], data[i*sizeG1Raw:]); err != nil {
				atomic.AddUint64(&nbErrs, 1)
				return
			}
		}
	})
	if nbErrs > 0 {
		return nil, fmt.Errorf("%w: non-canonical G1 coordinates", ErrPointValidation)
	}
	return points, nil
}

func parseG2Array(data []byte, count uint64) ([]bls12381.G2Affine, error) {
	points := make([]bls12381.G2Affine, count)
	for i := range points {
		if err := unmarshalG2(&points[i], data[i*sizeG2Raw:]); err != nil {
			return nil, err
		}
	}
	return points, nil
}

func parseFrArray(data []byte, count uint64) ([]fr.Element, error) {
	elems := make([]fr.Element, count)
	var nbErrs uint64
	parallel.Execute(int(count), func(start, end int) {
		for i := start; i < end; i++ {
			if err := unmarshalFr(&elems[i], data[i*sizeFrRaw:]); err != nil {
				atomic.AddUint64(&nbErrs, 1)
				return
			}
		}
	})
	if nbErrs > 0 {
		return nil, fmt.Errorf("%w: non-canonical root encoding", ErrRootsMismatch)
	}
	return elems, nil
}

func discard(r io.Reader, n uint64) error {
	if n == 0 {
		return nil
	}
	_, err := io.CopyN(io.Discard, r, int64(n))
	return err
}

func writeZeros(w io.Writer, n uint64) error {
	if n == 0 {
		return nil
	}
	_, err := w.Write(make([]byte, n))
	return err
}
