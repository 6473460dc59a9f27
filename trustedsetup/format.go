package trustedsetup

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/blang/semver/v4"
)

// Binary interchange format, little-endian, 64-byte aligned:
//
//	offset  size  content
//	0       12    magic marker bytes
//	12      4     version, "v{major}.{minor}" ASCII
//	16      32    NUL-padded lowercase protocol identifier
//	48      15    NUL-padded curve name
//	63      1     number of schema items n
//	64      n×32  schema items, one per data array
//	—       0|32  zero padding to the next 64-byte boundary
//	—       …     data arrays, each 64-byte aligned, in schema order
//
// Each schema item is 15 bytes of field kind, 2 bytes of group/field tag,
// 3 bytes of ordering tag, a little-endian uint32 element byte size and a
// little-endian uint64 element count.
const (
	formatMagic    = "trustedsetup"
	formatVersion  = "v1.0"
	formatProtocol = "ethereum_deneb_kzg"
	formatCurve    = "bls12_381"

	headerSize     = 64
	schemaItemSize = 32
	alignment      = 64

	kindLagrangeG1 = "srs_lagrange"
	kindMonomialG2 = "srs_monomial"
	kindRootsUnity = "roots_unity"

	groupG1 = "g1"
	groupG2 = "g2"
	fieldFr = "fr"

	orderAscending  = "asc"
	orderBitReverse = "brp"

	// raw affine point sizes: coordinates field-major, little-endian
	// 64-bit limbs, Montgomery form
	sizeG1Raw = 96
	sizeG2Raw = 192
	sizeFrRaw = 32

	// number of monomial-form G₂ points: enough for all protocol uses,
	// fixed by the ceremony
	numG2Points = 65

	// maxArrayCount bounds the element count a schema item may declare.
	// Generous headroom over any deployed domain size, and small enough
	// that byteSize cannot overflow uint64 and a malformed header cannot
	// drive an enormous allocation.
	maxArrayCount = 1 << 24
)

var (
	ErrBadMagic           = errors.New("trusted setup: bad magic bytes")
	ErrUnsupportedVersion = errors.New("trusted setup: unsupported format version")
	ErrWrongProtocol      = errors.New("trusted setup: protocol mismatch")
	ErrWrongCurve         = errors.New("trusted setup: curve mismatch")
	ErrBadSchema          = errors.New("trusted setup: malformed schema")
	ErrPointValidation    = errors.New("trusted setup: point not on curve or not in subgroup")
	ErrRootsMismatch      = errors.New("trusted setup: roots of unity are not the expected evaluation domain")
	ErrGeneratorMismatch  = errors.New("trusted setup: first monomial G2 point is not the canonical generator")
)

// schemaItem describes one data array of the file.
type schemaItem struct {
	Kind     string
	Group    string
	Order    string
	ElemSize uint32
	Count    uint64
}

func (s schemaItem) byteSize() uint64 {
	return uint64(s.ElemSize) * s.Count
}

func (s schemaItem) marshal(dst []byte) {
	_ = dst[schemaItemSize-1]
	copy(dst[0:15], s.Kind)
	copy(dst[15:17], s.Group)
	copy(dst[17:20], s.Order)
	binary.LittleEndian.PutUint32(dst[20:24], s.ElemSize)
	binary.LittleEndian.PutUint64(dst[24:32], s.Count)
}

func unmarshalSchemaItem(src []byte) schemaItem {
	return schemaItem{
		Kind:     trimNul(src[0:15]),
		Group:    trimNul(src[15:17]),
		Order:    trimNul(src[17:20]),
		ElemSize: binary.LittleEndian.Uint32(src[20:24]),
		Count:    binary.LittleEndian.Uint64(src[24:32]),
	}
}

// checkHeader validates the fixed 64-byte header and returns the number of
// schema items. Everything is checked before any bulk data is read.
func checkHeader(header []byte) (int, error) {
	if string(header[0:12]) != formatMagic {
		return 0, ErrBadMagic
	}
	if err := checkVersion(trimNul(header[12:16])); err != nil {
		return 0, err
	}
	if got := trimNul(header[16:48]); got != formatProtocol {
		return 0, fmt.Errorf("%w: got %q, want %q", ErrWrongProtocol, got, formatProtocol)
	}
	if got := trimNul(header[48:63]); got != formatCurve {
		return 0, fmt.Errorf("%w: got %q, want %q", ErrWrongCurve, got, formatCurve)
	}
	return int(header[63]), nil
}

// checkVersion accepts any minor revision of the supported major version.
func checkVersion(v string) error {
	if len(v) < 2 || v[0] != 'v' {
		return fmt.Errorf("%w: %q", ErrUnsupportedVersion, v)
	}
	parsed, err := semver.ParseTolerant(v[1:])
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrUnsupportedVersion, v, err)
	}
	supported := semver.MustParse("1.0.0")
	if parsed.Major != supported.Major {
		return fmt.Errorf("%w: %q, supported major is %d", ErrUnsupportedVersion, v, supported.Major)
	}
	return nil
}

// checkSchemaItem validates the metadata of a single schema item against the
// expectations for its kind.
func checkSchemaItem(item schemaItem) error {
	var group, order string
	var elemSize uint32
	switch item.Kind {
	case kindLagrangeG1:
		group, order, elemSize = groupG1, orderBitReverse, sizeG1Raw
		if err := checkArrayCount(item.Kind, item.Count); err != nil {
			return err
		}
	case kindRootsUnity:
		group, order, elemSize = fieldFr, orderBitReverse, sizeFrRaw
		if err := checkArrayCount(item.Kind, item.Count); err != nil {
			return err
		}
	case kindMonomialG2:
		group, order, elemSize = groupG2, orderAscending, sizeG2Raw
		if item.Count != numG2Points {
			return fmt.Errorf("%w: %s count %d, want %d", ErrBadSchema, item.Kind, item.Count, numG2Points)
		}
	default:
		return fmt.Errorf("%w: unknown field kind %q", ErrBadSchema, item.Kind)
	}
	if item.Group != group {
		return fmt.Errorf("%w: %s group tag %q, want %q", ErrBadSchema, item.Kind, item.Group, group)
	}
	if item.Order != order {
		return fmt.Errorf("%w: %s ordering tag %q, want %q", ErrBadSchema, item.Kind, item.Order, order)
	}
	if item.ElemSize != elemSize {
		return fmt.Errorf("%w: %s element size %d, want %d", ErrBadSchema, item.Kind, item.ElemSize, elemSize)
	}
	return nil
}

// checkArrayCount validates a variable-size array count: a power of two no
// larger than maxArrayCount.
func checkArrayCount(kind string, count uint64) error {
	if !isPowerOfTwo(count) {
		return fmt.Errorf("%w: %s count %d is not a power of two", ErrBadSchema, kind, count)
	}
	if count > maxArrayCount {
		return fmt.Errorf("%w: %s count %d exceeds maximum %d", ErrBadSchema, kind, count, uint64(maxArrayCount))
	}
	return nil
}

func trimNul(b []byte) string {
	return strings.TrimRight(string(b), "\x00")
}

func isPowerOfTwo(n uint64) bool {
	return n >= 2 && n&(n-1) == 0
}

// padding returns the number of zero bytes needed to reach the next
// alignment boundary after offset.
func padding(offset uint64) uint64 {
	return (alignment - offset%alignment) % alignment
}
