package vpgl

import (
	"context"
	"fmt"
	"math"

	"github.com/golang/geo/r3"

	"github.com/seantiz/batchcam/internal/batch"
	"github.com/seantiz/batchcam/internal/model"
)

// Pixel is an integer image position.
type Pixel struct {
	U, V int32
}

// PointFromCameras triangulates a world point from its pixel in each of at
// least two cameras. cams[i] observes pixels[i].
func (c *Client) PointFromCameras(ctx context.Context, cams []model.Handle, pixels []Pixel) (r3.Vector, error) {
	if len(cams) != len(pixels) || len(cams) < 2 {
		return r3.Vector{}, fmt.Errorf("%w: need matching cameras and pixels for at least two views, got %d and %d",
			ErrInvalidArgument, len(cams), len(pixels))
	}

	ids := make([]uint32, 0, len(cams))
	for _, cam := range cams {
		if cam.ID > math.MaxUint32 {
			return r3.Vector{}, fmt.Errorf("%w: camera id %d exceeds 32 bits", ErrInvalidArgument, cam.ID)
		}
		ids = append(ids, uint32(cam.ID))
	}
	pts := make([]int32, 0, 2*len(pixels))
	for _, p := range pixels {
		pts = append(pts, p.U, p.V)
	}

	call := batch.NewCall("vpglGenerate3dPointFromCamsProcess").
		UnsignedArray(0, ids).
		IntArray(1, pts)
	return c.vector(ctx, call)
}

// ConvertToLocalCoordinates converts a geodetic position to the LVCS stored
// in lvcsPath. The outputs are removed from the host database once read.
func (c *Client) ConvertToLocalCoordinates(ctx context.Context, lvcsPath string, lat, lon, el float32) (r3.Vector, error) {
	call := batch.NewCall("vpglConvertToLocalCoordinatesProcess").
		String(0, lvcsPath).
		Float(1, lat).
		Float(2, lon).
		Float(3, el)
	return c.releasedVector(ctx, call)
}

// ConvertToLocalCoordinates2 is ConvertToLocalCoordinates with an LVCS held in
// the host database.
func (c *Client) ConvertToLocalCoordinates2(ctx context.Context, lvcs model.Handle, lat, lon, el float32) (r3.Vector, error) {
	call := batch.NewCall("vpglConvertToLocalCoordinatesProcess2").
		Handle(0, lvcs).
		Float(1, lat).
		Float(2, lon).
		Float(3, el)
	return c.releasedVector(ctx, call)
}

// ConvertLocalToGlobalCoordinates converts a point in lvcs to latitude,
// longitude and elevation.
func (c *Client) ConvertLocalToGlobalCoordinates(ctx context.Context, lvcs model.Handle, p r3.Vector) (lat, lon, el float32, err error) {
	call := withPoint(batch.NewCall("vpglConvertLocalToGlobalCoordinatesProcess").Handle(0, lvcs), 1, p)
	err = c.exec(ctx, call, func(r *batch.Reader) {
		rr := r.Releasing()
		lat = rr.Float(0)
		lon = rr.Float(1)
		el = rr.Float(2)
	})
	if err != nil {
		return 0, 0, 0, err
	}
	return lat, lon, el, nil
}

func (c *Client) releasedVector(ctx context.Context, call *batch.Call) (r3.Vector, error) {
	var x, y, z float32
	err := c.exec(ctx, call, func(r *batch.Reader) {
		rr := r.Releasing()
		x = rr.Float(0)
		y = rr.Float(1)
		z = rr.Float(2)
	})
	if err != nil {
		return r3.Vector{}, err
	}
	return r3.Vector{X: float64(x), Y: float64(y), Z: float64(z)}, nil
}

// CreateLVCS creates a local vertical coordinate system with origin at
// (lat, lon, el) in the named coordinate system.
func (c *Client) CreateLVCS(ctx context.Context, lat, lon, el float32, csName string) (model.Handle, error) {
	call := batch.NewCall("vpglCreateLVCSProcess").
		Float(0, lat).
		Float(1, lon).
		Float(2, el).
		String(3, csName)
	return c.handle(ctx, call)
}

// SaveLVCS writes an LVCS with origin (lat, lon, hae) to path.
func (c *Client) SaveLVCS(ctx context.Context, lat, lon, hae float32, path string) error {
	call := batch.NewCall("vpglSaveLVCSProcess").
		Float(0, lat).
		Float(1, lon).
		Float(2, hae).
		String(3, path)
	return c.run(ctx, call)
}

// NITFFootprint writes the footprints of the NITF images listed in listPath
// to a KML file.
func (c *Client) NITFFootprint(ctx context.Context, listPath, kmlPath string) error {
	return c.run(ctx, batch.NewCall("vpglNITFFootprintProcess").String(0, listPath).String(1, kmlPath))
}

// GeoCamFootprint writes the footprint of a geographic camera to a KML file.
func (c *Client) GeoCamFootprint(ctx context.Context, cam model.Handle, geotiffPath, kmlPath string, opts ...CallOption) error {
	o := resolve(opts)
	call := batch.NewCall("vpglGeoFootprintProcess").
		Handle(0, cam).
		String(1, geotiffPath).
		String(2, kmlPath).
		Bool(3, o.initFinish)
	return c.run(ctx, call)
}

// GeotiffOptions are the optional arguments of LoadGeotiffCamera. The zero
// value means no LVCS, UTM zone 0 and the northern hemisphere (0).
type GeotiffOptions struct {
	LVCS          *model.Handle
	UTMZone       int32
	UTMHemisphere uint32
}

// LoadGeotiffCamera loads a geographic camera from a TFW file.
func (c *Client) LoadGeotiffCamera(ctx context.Context, tfwPath string, opts GeotiffOptions) (model.Handle, error) {
	call := batch.NewCall("vpglLoadGeoCameraProcess").String(0, tfwPath)
	if opts.LVCS != nil {
		call.Handle(1, *opts.LVCS)
	}
	call.Int(2, opts.UTMZone).Unsigned(3, opts.UTMHemisphere)
	return c.handle(ctx, call)
}

// SaveGeocamToTFW writes the geotransform of cam to a TFW world file.
func (c *Client) SaveGeocamToTFW(ctx context.Context, cam model.Handle, tfwPath string) error {
	return c.run(ctx, batch.NewCall("vpglSaveGeoCameraTFWProcess").Handle(0, cam).String(1, tfwPath))
}

// LoadGeotiffCamera2 loads a geographic camera from the header of a GeoTIFF
// image of size ni x nj.
func (c *Client) LoadGeotiffCamera2(ctx context.Context, path string, ni, nj uint32) (model.Handle, error) {
	call := batch.NewCall("vpglLoadGeoCameraProcess2").
		String(0, path).
		Unsigned(1, ni).
		Unsigned(2, nj)
	return c.handle(ctx, call)
}

// TranslateGeoCamera returns a copy of cam shifted by (x, y).
func (c *Client) TranslateGeoCamera(ctx context.Context, cam model.Handle, x, y float64) (model.Handle, error) {
	call := batch.NewCall("vpglTranslateGeoCameraProcess").
		Handle(0, cam).
		Double(1, x).
		Double(2, y)
	return c.handle(ctx, call)
}

// GeoToGeneric converts a geographic camera to a generic camera at the given
// scene height.
func (c *Client) GeoToGeneric(ctx context.Context, cam model.Handle, ni, nj int32, sceneHeight float64, level int32) (model.Handle, error) {
	call := batch.NewCall("vpglConvertGeoCameraToGenericProcess").
		Handle(0, cam).
		Int(1, ni).
		Int(2, nj).
		Double(3, sceneHeight).
		Int(4, level)
	return c.handle(ctx, call)
}

// GeoCamGlobalToImg projects a longitude and latitude into the image of a
// geographic camera.
func (c *Client) GeoCamGlobalToImg(ctx context.Context, cam model.Handle, lon, lat float64) (u, v int32, err error) {
	call := batch.NewCall("vpglGeoGlobalToImgProcess").
		Handle(0, cam).
		Double(1, lon).
		Double(2, lat)
	err = c.exec(ctx, call, func(r *batch.Reader) {
		u = r.Int(0)
		v = r.Int(1)
	})
	if err != nil {
		return 0, 0, err
	}
	return u, v, nil
}
