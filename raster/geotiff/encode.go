package geotiff

import (
	"encoding/binary"
	"image"
	"image/draw"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Encode writes img as an uncompressed little-endian single-strip TIFF with
// the georeferencing from md attached. Gray and Gray16 images keep their
// sample depth; everything else is written as 8-bit RGB. A north-up
// axis-aligned transform is stored compactly as pixel scale plus tiepoint,
// anything rotated or sheared as a full model transformation matrix.
func Encode(w io.Writer, img image.Image, md *Metadata) error {
	if img == nil {
		return errors.New("nil image")
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return errors.New("empty image")
	}
	pix, spp, bits, photometric := pixelData(img)

	width, height := uint32(b.Dx()), uint32(b.Dy())
	bps := leShorts(bits)
	if spp == 3 {
		bps = leShorts(8, 8, 8)
	}
	entries := []encEntry{
		{tagImageWidth, typeLong, 1, leLongs(width)},
		{tagImageLength, typeLong, 1, leLongs(height)},
		{tagBitsPerSample, typeShort, uint32(spp), bps},
		{tagCompression, typeShort, 1, leShorts(1)},
		{tagPhotometric, typeShort, 1, leShorts(photometric)},
		{tagStripOffsets, typeLong, 1, leLongs(8)},
		{tagSamplesPerPixel, typeShort, 1, leShorts(uint16(spp))},
		{tagRowsPerStrip, typeLong, 1, leLongs(height)},
		{tagStripByteCounts, typeLong, 1, leLongs(uint32(len(pix)))},
		{tagPlanarConfig, typeShort, 1, leShorts(1)},
	}

	if md != nil && md.HasTransform {
		gt := md.Transform
		if gt[2] == 0 && gt[4] == 0 && gt[5] < 0 {
			entries = append(entries,
				encEntry{tagModelPixelScale, typeDouble, 3, leDoubles(gt[1], -gt[5], 0)},
				encEntry{tagModelTiepoint, typeDouble, 6, leDoubles(0, 0, 0, gt[0], gt[3], 0)},
			)
		} else {
			entries = append(entries, encEntry{tagModelTransformation, typeDouble, 16, leDoubles(
				gt[1], gt[2], 0, gt[0],
				gt[4], gt[5], 0, gt[3],
				0, 0, 0, 0,
				0, 0, 0, 1,
			)})
		}
	}
	if md != nil && md.CRS != "" {
		dir, ascii := geoKeyDirectory(md.CRS)
		entries = append(entries, encEntry{tagGeoKeyDirectory, typeShort, uint32(len(dir)), leShorts(dir...)})
		if len(ascii) > 0 {
			entries = append(entries, encEntry{tagGeoAsciiParams, typeASCII, uint32(len(ascii)), ascii})
		}
	}
	if md != nil && md.Nodata != nil {
		val := append([]byte(strconv.FormatFloat(*md.Nodata, 'g', -1, 64)), 0)
		entries = append(entries, encEntry{tagGDALNodata, typeASCII, uint32(len(val)), val})
	}

	// Layout: 8-byte header, the pixel strip, the IFD, then out-of-line tag
	// values. The IFD and every value must start on a word boundary.
	ifdOff := uint32(8) + uint32(len(pix))
	padStrip := ifdOff%2 == 1
	if padStrip {
		ifdOff++
	}
	numEntries := uint32(len(entries))
	extraOff := ifdOff + 2 + numEntries*12 + 4
	var extra []byte
	offsets := make([]uint32, len(entries))
	for i, e := range entries {
		if len(e.value) > 4 {
			offsets[i] = extraOff + uint32(len(extra))
			extra = append(extra, e.value...)
			if len(extra)%2 == 1 {
				extra = append(extra, 0)
			}
		}
	}

	out := make([]byte, 0, int(extraOff)+len(extra))
	out = append(out, 'I', 'I', 42, 0)
	out = binary.LittleEndian.AppendUint32(out, ifdOff)
	out = append(out, pix...)
	if padStrip {
		out = append(out, 0)
	}
	out = binary.LittleEndian.AppendUint16(out, uint16(numEntries))
	for i, e := range entries {
		out = binary.LittleEndian.AppendUint16(out, e.tag)
		out = binary.LittleEndian.AppendUint16(out, e.typ)
		out = binary.LittleEndian.AppendUint32(out, e.count)
		if len(e.value) > 4 {
			out = binary.LittleEndian.AppendUint32(out, offsets[i])
		} else {
			var inline [4]byte
			copy(inline[:], e.value)
			out = append(out, inline[:]...)
		}
	}
	out = binary.LittleEndian.AppendUint32(out, 0)
	out = append(out, extra...)

	_, err := w.Write(out)
	return err
}

type encEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	value []byte
}

func pixelData(img image.Image) (pix []byte, spp int, bits, photometric uint16) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	switch src := img.(type) {
	case *image.Gray:
		pix = make([]byte, w*h)
		for y := 0; y < h; y++ {
			copy(pix[y*w:], src.Pix[y*src.Stride:y*src.Stride+w])
		}
		return pix, 1, 8, 1
	case *image.Gray16:
		pix = make([]byte, 2*w*h)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				off := y*src.Stride + 2*x
				v := uint16(src.Pix[off])<<8 | uint16(src.Pix[off+1])
				binary.LittleEndian.PutUint16(pix[2*(y*w+x):], v)
			}
		}
		return pix, 1, 16, 1
	default:
		rgba := image.NewNRGBA(b)
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
		pix = make([]byte, 3*w*h)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				copy(pix[3*(y*w+x):], rgba.Pix[y*rgba.Stride+4*x:y*rgba.Stride+4*x+3])
			}
		}
		return pix, 3, 8, 2
	}
}

func geoKeyDirectory(crs string) ([]uint16, []byte) {
	var keys [][4]uint16
	var ascii []byte
	if code, ok := epsgCode(crs); ok {
		modelType := uint16(1)
		csKey := [4]uint16{keyProjectedCSType, 0, 1, code}
		if code >= 4000 && code < 5000 {
			modelType = 2
			csKey = [4]uint16{keyGeographicType, 0, 1, code}
		}
		keys = [][4]uint16{
			{keyGTModelType, 0, 1, modelType},
			{keyGTRasterType, 0, 1, 1},
			csKey,
		}
	} else {
		ascii = append([]byte(crs), '|', 0)
		keys = [][4]uint16{
			{keyGTModelType, 0, 1, 1},
			{keyGTRasterType, 0, 1, 1},
			{keyGTCitation, tagGeoAsciiParams, uint16(len(crs) + 1), 0},
		}
	}
	dir := make([]uint16, 0, 4+4*len(keys))
	dir = append(dir, 1, 1, 0, uint16(len(keys)))
	for _, k := range keys {
		dir = append(dir, k[0], k[1], k[2], k[3])
	}
	return dir, ascii
}

func epsgCode(crs string) (uint16, bool) {
	upper := strings.ToUpper(strings.TrimSpace(crs))
	if !strings.HasPrefix(upper, "EPSG:") {
		return 0, false
	}
	code, err := strconv.ParseUint(strings.TrimSpace(strings.TrimPrefix(upper, "EPSG:")), 10, 16)
	if err != nil || code == 0 {
		return 0, false
	}
	return uint16(code), true
}

func leShorts(vals ...uint16) []byte {
	out := make([]byte, 0, 2*len(vals))
	for _, v := range vals {
		out = binary.LittleEndian.AppendUint16(out, v)
	}
	return out
}

func leLongs(vals ...uint32) []byte {
	out := make([]byte, 0, 4*len(vals))
	for _, v := range vals {
		out = binary.LittleEndian.AppendUint32(out, v)
	}
	return out
}

func leDoubles(vals ...float64) []byte {
	out := make([]byte, 0, 8*len(vals))
	for _, v := range vals {
		out = binary.LittleEndian.AppendUint64(out, math.Float64bits(v))
	}
	return out
}
