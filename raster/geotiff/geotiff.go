// Package geotiff reads and writes GeoTIFF files: baseline TIFF pixel data
// plus the georeferencing tags (model tiepoint, pixel scale or full model
// transformation, GeoKey directory, GDAL nodata) layered on top.
//
// Decoding delegates the pixel data to golang.org/x/image/tiff and walks the
// first image file directory itself for the geo tags, so it accepts any
// sample layout that package can decode. Encoding is deliberately narrow:
// uncompressed single-strip gray8, gray16, or RGB, which covers the label
// and imagery rasters this project produces.
package geotiff

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/image/tiff"
)

// Metadata is the georeferencing carried by a GeoTIFF alongside its pixels.
type Metadata struct {
	// Transform maps pixel to world coordinates in GDAL order:
	// worldX = T[0] + col*T[1] + row*T[2], worldY = T[3] + col*T[4] + row*T[5].
	Transform    [6]float64
	HasTransform bool
	// CRS names the coordinate reference system, "EPSG:<code>" when the file
	// carries a known EPSG code, otherwise the citation text. Empty when the
	// file declares none.
	CRS string
	// Nodata is the GDAL nodata sample value, if declared.
	Nodata *float64
}

// Decode reads a GeoTIFF, returning the decoded pixels and whatever
// georeferencing the file carries. Plain TIFFs decode fine with empty
// metadata.
func Decode(r io.Reader) (image.Image, *Metadata, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, err
	}
	md, err := parseMetadata(buf)
	if err != nil {
		return nil, nil, err
	}
	img, err := tiff.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, nil, err
	}
	return img, md, nil
}

func parseMetadata(buf []byte) (*Metadata, error) {
	if len(buf) < 8 {
		return nil, errors.New("truncated tiff header")
	}
	var bo binary.ByteOrder
	switch {
	case buf[0] == 'I' && buf[1] == 'I':
		bo = binary.LittleEndian
	case buf[0] == 'M' && buf[1] == 'M':
		bo = binary.BigEndian
	default:
		return nil, errors.Errorf("bad byte order mark %q", buf[:2])
	}
	if bo.Uint16(buf[2:4]) != 42 {
		return nil, errors.New("bad tiff magic")
	}

	ifdOff := bo.Uint32(buf[4:8])
	if uint64(ifdOff)+2 > uint64(len(buf)) {
		return nil, errors.New("first IFD lies outside the file")
	}
	numEntries := int(bo.Uint16(buf[ifdOff:]))
	if uint64(ifdOff)+2+uint64(numEntries)*12 > uint64(len(buf)) {
		return nil, errors.Errorf("IFD with %d entries lies outside the file", numEntries)
	}

	var (
		scale, tiepoint, matrix []float64
		geoKeys                 []uint16
		geoAscii                string
		nodataStr               string
		err                     error
	)
	for i := 0; i < numEntries; i++ {
		off := ifdOff + 2 + uint32(i)*12
		e := ifdEntry{
			tag:   bo.Uint16(buf[off:]),
			typ:   bo.Uint16(buf[off+2:]),
			count: bo.Uint32(buf[off+4:]),
		}
		copy(e.raw[:], buf[off+8:off+12])
		switch e.tag {
		case tagModelPixelScale:
			scale, err = e.floats(buf, bo)
		case tagModelTiepoint:
			tiepoint, err = e.floats(buf, bo)
		case tagModelTransformation:
			matrix, err = e.floats(buf, bo)
		case tagGeoKeyDirectory:
			geoKeys, err = e.shorts(buf, bo)
		case tagGeoAsciiParams:
			geoAscii, err = e.ascii(buf, bo)
		case tagGDALNodata:
			nodataStr, err = e.ascii(buf, bo)
		}
		if err != nil {
			return nil, err
		}
	}

	md := &Metadata{}
	switch {
	case len(matrix) >= 16:
		// Row-major 4x4; only the 2D affine part is meaningful here.
		md.Transform = [6]float64{matrix[3], matrix[0], matrix[1], matrix[7], matrix[4], matrix[5]}
		md.HasTransform = true
	case len(scale) >= 2 && len(tiepoint) >= 6:
		i, j := tiepoint[0], tiepoint[1]
		x, y := tiepoint[3], tiepoint[4]
		sx, sy := scale[0], scale[1]
		md.Transform = [6]float64{x - i*sx, sx, 0, y + j*sy, 0, -sy}
		md.HasTransform = true
	}
	md.CRS = crsFromGeoKeys(geoKeys, geoAscii)
	if s := strings.TrimRight(nodataStr, "\x00 "); s != "" {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			md.Nodata = &v
		}
	}
	return md, nil
}

// crsFromGeoKeys extracts a CRS name from a GeoKey directory. An EPSG code
// from the geographic or projected CS keys wins over citation text; the
// sentinel 32767 means user-defined and is skipped.
func crsFromGeoKeys(keys []uint16, ascii string) string {
	if len(keys) < 4 {
		return ""
	}
	var epsg uint16
	var citation string
	numKeys := int(keys[3])
	for k := 0; k < numKeys && 4+4*k+3 < len(keys); k++ {
		id, loc, count, value := keys[4+4*k], keys[4+4*k+1], keys[4+4*k+2], keys[4+4*k+3]
		switch id {
		case keyGeographicType, keyProjectedCSType:
			if loc == 0 && value != 0 && value != 32767 {
				epsg = value
			}
		case keyGTCitation:
			if loc == tagGeoAsciiParams {
				citation = asciiSlice(ascii, value, count)
			}
		}
	}
	if epsg != 0 {
		return fmt.Sprintf("EPSG:%d", epsg)
	}
	return citation
}

func asciiSlice(s string, off, count uint16) string {
	end := int(off) + int(count)
	if end > len(s) {
		end = len(s)
	}
	if int(off) >= end {
		return ""
	}
	return strings.TrimRight(s[off:end], "|\x00 ")
}
