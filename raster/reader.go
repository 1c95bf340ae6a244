package raster

import (
	"bufio"
	"bytes"
	"context"
	"image"

	// registered for image.Decode of non-GeoTIFF imagery.
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/pkg/errors"
	"go.opencensus.io/trace"
	goutils "go.viam.com/utils"

	"github.com/overheadlabs/geomask/raster/geotiff"
)

// ReadFile decodes a raster from disk. GeoTIFF files come back with their
// affine transform, CRS, and nodata value attached; PNG and JPEG decode with
// a nil georeference.
func ReadFile(ctx context.Context, path string) (*Image, error) {
	_, span := trace.StartSpan(ctx, "raster::ReadFile")
	defer span.End()

	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidInput, "open %s: %s", path, err)
	}
	defer goutils.UncheckedErrorFunc(f.Close)

	br := bufio.NewReader(f)
	header, err := br.Peek(4)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidInput, "read %s: %s", path, err)
	}

	if isTIFFHeader(header) {
		img, md, err := geotiff.Decode(br)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidInput, "decode %s: %s", path, err)
		}
		out, err := FromStdImage(img, georefFromMetadata(md))
		if err != nil {
			return nil, err
		}
		if md.Nodata != nil {
			out = out.WithNodata(*md.Nodata)
		}
		return out, nil
	}

	img, _, err := image.Decode(br)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidInput, "decode %s: %s", path, err)
	}
	return FromStdImage(img, nil)
}

func isTIFFHeader(header []byte) bool {
	return bytes.HasPrefix(header, []byte("II*\x00")) || bytes.HasPrefix(header, []byte("MM\x00*"))
}

func georefFromMetadata(md *geotiff.Metadata) *GeoReference {
	if md == nil || !md.HasTransform {
		return nil
	}
	return &GeoReference{Transform: md.Transform, CRS: md.CRS}
}
