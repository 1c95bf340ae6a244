package geotiff

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"

	"github.com/overheadlabs/geomask/utils"
)

// Baseline TIFF tags used by the codec.
const (
	tagImageWidth      = 256
	tagImageLength     = 257
	tagBitsPerSample   = 258
	tagCompression     = 259
	tagPhotometric     = 262
	tagStripOffsets    = 273
	tagSamplesPerPixel = 277
	tagRowsPerStrip    = 278
	tagStripByteCounts = 279
	tagPlanarConfig    = 284
)

// GeoTIFF and GDAL extension tags.
const (
	tagModelPixelScale     = 33550
	tagModelTiepoint       = 33922
	tagModelTransformation = 34264
	tagGeoKeyDirectory     = 34735
	tagGeoDoubleParams     = 34736
	tagGeoAsciiParams      = 34737
	tagGDALNodata          = 42113
)

// GeoKey IDs read and written out of the key directory.
const (
	keyGTModelType     = 1024
	keyGTRasterType    = 1025
	keyGTCitation      = 1026
	keyGeographicType  = 2048
	keyProjectedCSType = 3072
)

// TIFF field types.
const (
	typeByte   = 1
	typeASCII  = 2
	typeShort  = 3
	typeLong   = 4
	typeFloat  = 11
	typeDouble = 12
)

type ifdEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	// raw holds the 4-byte value field of the entry as stored in the file.
	raw [4]byte
}

func typeSize(typ uint16) uint32 {
	switch typ {
	case typeByte, typeASCII:
		return 1
	case typeShort:
		return 2
	case typeLong, typeFloat:
		return 4
	case typeDouble:
		return 8
	default:
		return 0
	}
}

// payload returns the entry's value bytes, following the offset indirection
// when the value does not fit in the entry itself.
func (e *ifdEntry) payload(buf []byte, bo binary.ByteOrder) ([]byte, error) {
	size := typeSize(e.typ)
	if size == 0 {
		return nil, errors.Errorf("tag %d has unsupported field type %d", e.tag, e.typ)
	}
	total := size * e.count
	if total <= 4 {
		return e.raw[:total], nil
	}
	off := bo.Uint32(e.raw[:])
	end := uint64(off) + uint64(total)
	if end > uint64(len(buf)) {
		return nil, errors.Errorf("tag %d value at %d..%d lies outside the file", e.tag, off, end)
	}
	return buf[off:end], nil
}

func (e *ifdEntry) shorts(buf []byte, bo binary.ByteOrder) ([]uint16, error) {
	if e.typ != typeShort {
		return nil, errors.Errorf("tag %d: expected SHORT values, got type %d", e.tag, e.typ)
	}
	data, err := e.payload(buf, bo)
	if err != nil {
		return nil, err
	}
	out := make([]uint16, e.count)
	for i := range out {
		out[i] = bo.Uint16(data[2*i:])
	}
	return out, nil
}

func (e *ifdEntry) floats(buf []byte, bo binary.ByteOrder) ([]float64, error) {
	data, err := e.payload(buf, bo)
	if err != nil {
		return nil, err
	}
	switch e.typ {
	case typeByte:
		return utils.ConvertNumberSlice[byte, float64](data), nil
	case typeShort:
		vals := make([]uint16, e.count)
		for i := range vals {
			vals[i] = bo.Uint16(data[2*i:])
		}
		return utils.ConvertNumberSlice[uint16, float64](vals), nil
	case typeLong:
		vals := make([]uint32, e.count)
		for i := range vals {
			vals[i] = bo.Uint32(data[4*i:])
		}
		return utils.ConvertNumberSlice[uint32, float64](vals), nil
	case typeFloat:
		out := make([]float64, e.count)
		for i := range out {
			out[i] = float64(math.Float32frombits(bo.Uint32(data[4*i:])))
		}
		return out, nil
	case typeDouble:
		out := make([]float64, e.count)
		for i := range out {
			out[i] = math.Float64frombits(bo.Uint64(data[8*i:]))
		}
		return out, nil
	default:
		return nil, errors.Errorf("tag %d: expected numeric values, got type %d", e.tag, e.typ)
	}
}

func (e *ifdEntry) ascii(buf []byte, bo binary.ByteOrder) (string, error) {
	if e.typ != typeASCII {
		return "", errors.Errorf("tag %d: expected ASCII value, got type %d", e.tag, e.typ)
	}
	data, err := e.payload(buf, bo)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
