package raster

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.opencensus.io/trace"
	goutils "go.viam.com/utils"

	"github.com/overheadlabs/geomask/raster/geotiff"
	"github.com/overheadlabs/geomask/utils"
)

// WriteFile encodes a raster to disk as GeoTIFF. The path must end in .tif
// or .tiff. The file is written to a temporary sibling and renamed into
// place so a failed encode never leaves a partial file at the destination.
func WriteFile(ctx context.Context, path string, img *Image) error {
	_, span := trace.StartSpan(ctx, "raster::WriteFile")
	defer span.End()

	if img == nil {
		return errors.Wrap(ErrInvalidInput, "nil image")
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tif", ".tiff":
	default:
		return errors.Wrapf(ErrInvalidInput, "unsupported output extension %q", filepath.Ext(path))
	}

	md := &geotiff.Metadata{}
	if georef := img.GeoReference(); georef != nil {
		md.Transform = georef.Transform
		md.HasTransform = true
		md.CRS = georef.CRS
	}
	if nodata, ok := img.Nodata(); ok {
		md.Nodata = &nodata
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".geomask-*.tif")
	if err != nil {
		return err
	}
	guard := utils.NewGuard(func() {
		goutils.UncheckedError(os.Remove(tmp.Name()))
	})
	defer guard.OnFail()

	if err := geotiff.Encode(tmp, img.Std(), md); err != nil {
		goutils.UncheckedErrorFunc(tmp.Close)
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return err
	}
	guard.Success()
	return nil
}
