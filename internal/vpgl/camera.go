package vpgl

import (
	"context"

	"github.com/golang/geo/r3"

	"github.com/seantiz/batchcam/internal/batch"
	"github.com/seantiz/batchcam/internal/model"
)

// DefaultUp is the up vector assumed when PerspectiveParams.Up is zero.
var DefaultUp = r3.Vector{X: 0, Y: 1, Z: 0}

// PerspectiveParams describes a perspective camera built from intrinsics and
// a center looking at a point.
type PerspectiveParams struct {
	Scale          [2]float64 // (su, sv)
	PrincipalPoint [2]float64 // (u0, v0)
	Center         r3.Vector
	Look           r3.Vector

	// Up is accepted for completeness. The create process derives the
	// orientation from Center and Look and takes no up vector.
	Up r3.Vector
}

// UpVector returns Up, or DefaultUp when Up is zero. An explicit zero Up is
// treated as omitted.
func (p PerspectiveParams) UpVector() r3.Vector {
	if p.Up == (r3.Vector{}) {
		return DefaultUp
	}
	return p.Up
}

// KMLParams describes a perspective camera by a KML view.
type KMLParams struct {
	NI, NJ   uint32
	RightFOV float64
	TopFOV   float64
	Altitude float64
	Heading  float64
	Tilt     float64
	Roll     float64
	CenterX  float64
	CenterY  float64
}

// Location is a geodetic position returned alongside a KML camera.
type Location struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
	Alt float64 `json:"alt"`
}

// Size is an image size in pixels.
type Size struct {
	NI, NJ int32
}

// GenericWithMargin is the result of a margin-padded generic conversion.
type GenericWithMargin struct {
	Generic     model.Handle `json:"generic"`
	NI          uint32       `json:"ni"`
	NJ          uint32       `json:"nj"`
	Perspective model.Handle `json:"perspective"`
}

// VRMLStyle controls how a camera is drawn in a VRML scene.
type VRMLStyle struct {
	CameraRadius float32
	AxisLength   float32
	R, G, B      float32
}

// vrmlCameraSize is the camera glyph size used by the VRML save processes.
const vrmlCameraSize = 5.0

// LoadPerspectiveCamera loads a perspective camera from a file.
func (c *Client) LoadPerspectiveCamera(ctx context.Context, path string) (model.Handle, error) {
	return c.handle(ctx, batch.NewCall("vpglLoadPerspectiveCameraProcess").String(0, path))
}

// LoadAffineCamera loads an affine camera from a file.
func (c *Client) LoadAffineCamera(ctx context.Context, path string) (model.Handle, error) {
	return c.handle(ctx, batch.NewCall("vpglLoadAffineCameraProcess").String(0, path))
}

// LoadProjectiveCamera loads a projective camera from a file.
func (c *Client) LoadProjectiveCamera(ctx context.Context, path string) (model.Handle, error) {
	return c.handle(ctx, batch.NewCall("vpglLoadProjCameraProcess").String(0, path))
}

// CreatePerspectiveCamera builds a perspective camera at p.Center looking at
// p.Look.
func (c *Client) CreatePerspectiveCamera(ctx context.Context, p PerspectiveParams) (model.Handle, error) {
	call := batch.NewCall("vpglCreatePerspectiveCameraProcess").
		Double(0, p.Scale[0]).
		Double(1, p.PrincipalPoint[0]).
		Double(2, p.Scale[1]).
		Double(3, p.PrincipalPoint[1]).
		Double(4, p.Center.X).
		Double(5, p.Center.Y).
		Double(6, p.Center.Z).
		Double(7, p.Look.X).
		Double(8, p.Look.Y).
		Double(9, p.Look.Z)
	return c.handle(ctx, call)
}

// CreatePerspectiveCameraFromKML builds a perspective camera from a KML view.
func (c *Client) CreatePerspectiveCameraFromKML(ctx context.Context, p KMLParams) (model.Handle, error) {
	call := batch.NewCall("vpglCreatePerspCameraFromKMLProcess").
		Unsigned(0, p.NI).
		Unsigned(1, p.NJ).
		Double(2, p.RightFOV).
		Double(3, p.TopFOV).
		Double(4, p.Altitude).
		Double(5, p.Heading).
		Double(6, p.Tilt).
		Double(7, p.Roll).
		Double(8, p.CenterX).
		Double(9, p.CenterY)
	return c.handle(ctx, call)
}

// LoadPerspectiveCameraFromKMLFile loads a camera of size ni x nj from a KML
// file and returns the location it was placed at.
func (c *Client) LoadPerspectiveCameraFromKMLFile(ctx context.Context, ni, nj uint32, path string) (model.Handle, Location, error) {
	call := batch.NewCall("vpglLoadPerspCameraFromKMLFileProcess").
		Unsigned(0, ni).
		Unsigned(1, nj).
		String(2, path)

	var (
		cam model.Handle
		loc Location
	)
	err := c.exec(ctx, call, func(r *batch.Reader) {
		cam = r.Handle(0)
		loc.Lon = r.Double(1)
		loc.Lat = r.Double(2)
		loc.Alt = r.Double(3)
	})
	if err != nil {
		return model.Handle{}, Location{}, err
	}
	return cam, loc, nil
}

// ResamplePerspectiveCamera rescales cam from an image of size from to one of
// size to.
func (c *Client) ResamplePerspectiveCamera(ctx context.Context, cam model.Handle, from, to Size) (model.Handle, error) {
	call := batch.NewCall("vpglResamplePerspectiveCameraProcess").
		Handle(0, cam).
		Int(1, from.NI).
		Int(2, from.NJ).
		Int(3, to.NI).
		Int(4, to.NJ)
	return c.handle(ctx, call)
}

// PerspectiveCameraCenter returns the center of a perspective camera.
func (c *Client) PerspectiveCameraCenter(ctx context.Context, cam model.Handle) (r3.Vector, error) {
	call := batch.NewCall("vpglGetPerspectiveCamCenterProcess").Handle(0, cam)
	return c.vector(ctx, call)
}

// vector reads three float outputs as a point.
func (c *Client) vector(ctx context.Context, call *batch.Call) (r3.Vector, error) {
	var x, y, z float32
	err := c.exec(ctx, call, func(r *batch.Reader) {
		x = r.Float(0)
		y = r.Float(1)
		z = r.Float(2)
	})
	if err != nil {
		return r3.Vector{}, err
	}
	return r3.Vector{X: float64(x), Y: float64(y), Z: float64(z)}, nil
}

// LoadRationalCamera loads a rational camera from an RPC text file.
func (c *Client) LoadRationalCamera(ctx context.Context, path string) (model.Handle, error) {
	return c.handle(ctx, batch.NewCall("vpglLoadRationalCameraProcess").String(0, path))
}

// LoadRationalCameraNITF loads a rational camera from a NITF image header.
func (c *Client) LoadRationalCameraNITF(ctx context.Context, path string) (model.Handle, error) {
	return c.handle(ctx, batch.NewCall("vpglLoadRationalCameraNITFProcess").String(0, path))
}

// LoadLocalRationalCamera loads a local rational camera file.
func (c *Client) LoadLocalRationalCamera(ctx context.Context, path string) (model.Handle, error) {
	return c.handle(ctx, batch.NewCall("vpglLoadLocalRationalCameraProcess").String(0, path))
}

// ConvertLocalRationalToPerspective approximates a local rational camera by a
// perspective one.
func (c *Client) ConvertLocalRationalToPerspective(ctx context.Context, cam model.Handle) (model.Handle, error) {
	return c.handle(ctx, batch.NewCall("vpglConvertLocalRationalToPerspectiveProcess").Handle(0, cam))
}

// CreateLocalRationalCamera combines a rational camera file and an LVCS file.
func (c *Client) CreateLocalRationalCamera(ctx context.Context, rationalPath, lvcsPath string) (model.Handle, error) {
	call := batch.NewCall("vpglCreateLocalRationalCameraProcess").
		String(0, rationalPath).
		String(1, lvcsPath)
	return c.handle(ctx, call)
}

// SaveRationalCamera writes cam to path in RPC text form.
func (c *Client) SaveRationalCamera(ctx context.Context, cam model.Handle, path string) error {
	return c.run(ctx, batch.NewCall("vpglSaveRationalCameraProcess").Handle(0, cam).String(1, path))
}

// SavePerspectiveCamera writes cam to path as a perspective camera file.
func (c *Client) SavePerspectiveCamera(ctx context.Context, cam model.Handle, path string) error {
	return c.run(ctx, batch.NewCall("vpglSavePerspectiveCameraProcess").Handle(0, cam).String(1, path))
}

// SavePerspectiveCameraVRML writes cam to a VRML file.
func (c *Client) SavePerspectiveCameraVRML(ctx context.Context, cam model.Handle, path string) error {
	call := batch.NewCall("vpglSavePerspectiveCameraVrmlProcess").
		Handle(0, cam).
		String(1, path).
		Float(2, vrmlCameraSize)
	return c.run(ctx, call)
}

// SavePerspectiveCamerasVRML writes every camera found in dir to one VRML
// file.
func (c *Client) SavePerspectiveCamerasVRML(ctx context.Context, dir, path string) error {
	call := batch.NewCall("vpglSavePerspectiveCamerasVrmlProcess").
		String(0, dir).
		String(1, path).
		Float(2, vrmlCameraSize)
	return c.run(ctx, call)
}

// PerspectiveToGeneric converts a perspective camera to a generic camera of
// size ni x nj.
func (c *Client) PerspectiveToGeneric(ctx context.Context, cam model.Handle, ni, nj uint32, opts ...CallOption) (model.Handle, error) {
	return c.ConvertToGenericCamera(ctx, cam, ni, nj, opts...)
}

// ConvertToGenericCamera converts any camera to a generic camera of size
// ni x nj.
func (c *Client) ConvertToGenericCamera(ctx context.Context, cam model.Handle, ni, nj uint32, opts ...CallOption) (model.Handle, error) {
	o := resolve(opts)
	call := batch.NewCall("vpglConvertToGenericCameraProcess").
		Handle(0, cam).
		Unsigned(1, ni).
		Unsigned(2, nj).
		Unsigned(3, o.level)
	return c.handle(ctx, call)
}

// PerspectiveToGenericWithMargin converts cam to a generic camera whose image
// is padded by margin pixels on every side.
func (c *Client) PerspectiveToGenericWithMargin(ctx context.Context, cam model.Handle, ni, nj uint32, margin int32, opts ...CallOption) (GenericWithMargin, error) {
	o := resolve(opts)
	call := batch.NewCall("vpglConvertToGenericCameraWithMarginProcess").
		Handle(0, cam).
		Unsigned(1, ni).
		Unsigned(2, nj).
		Unsigned(3, o.level).
		Int(4, margin)

	var out GenericWithMargin
	err := c.exec(ctx, call, func(r *batch.Reader) {
		out.Generic = r.Handle(0)
		out.NI = r.Unsigned(1)
		out.NJ = r.Unsigned(2)
		out.Perspective = r.Handle(3)
	})
	if err != nil {
		return GenericWithMargin{}, err
	}
	return out, nil
}

// CameraDirPlanarBBox computes the planar bounding box of a directory of
// cameras. The host reports the result in its own log.
func (c *Client) CameraDirPlanarBBox(ctx context.Context, dir string) error {
	return c.run(ctx, batch.NewCall("vpglGetBoundingBoxProcess").String(0, dir))
}

// ProjectPoint projects a world point into the image of cam.
func (c *Client) ProjectPoint(ctx context.Context, cam model.Handle, p r3.Vector) (u, v float32, err error) {
	call := withPoint(batch.NewCall("vpglProjectProcess").Handle(0, cam), 1, p)
	err = c.exec(ctx, call, func(r *batch.Reader) {
		u = r.Float(0)
		v = r.Float(1)
	})
	if err != nil {
		return 0, 0, err
	}
	return u, v, nil
}

// ViewAtPoint returns the viewing direction of cam at a world point.
func (c *Client) ViewAtPoint(ctx context.Context, cam model.Handle, p r3.Vector) (theta, phi float32, err error) {
	call := withPoint(batch.NewCall("vpglGetViewDirectionAtPointProcess").Handle(0, cam), 1, p)
	err = c.exec(ctx, call, func(r *batch.Reader) {
		theta = r.Float(0)
		phi = r.Float(1)
	})
	if err != nil {
		return 0, 0, err
	}
	return theta, phi, nil
}

// PointFromDepth back-projects pixel (u, v) to depth t along its ray.
func (c *Client) PointFromDepth(ctx context.Context, cam model.Handle, u, v, t float32) (r3.Vector, error) {
	call := batch.NewCall("vpglGenerate3dPointFromDepthProcess").
		Handle(0, cam).
		Float(1, u).
		Float(2, v).
		Float(3, t)
	return c.vector(ctx, call)
}

// withPoint sets p as three consecutive float inputs starting at index.
func withPoint(call *batch.Call, index int, p r3.Vector) *batch.Call {
	return call.
		Float(index, float32(p.X)).
		Float(index+1, float32(p.Y)).
		Float(index+2, float32(p.Z))
}

// ConvertLocalRationalToGeneric converts a local rational camera to a generic
// camera over the elevation range [minZ, maxZ].
func (c *Client) ConvertLocalRationalToGeneric(ctx context.Context, cam model.Handle, ni, nj uint32, minZ, maxZ float32, opts ...CallOption) (model.Handle, error) {
	o := resolve(opts)
	call := batch.NewCall("vpglConvertLocalRationalToGenericProcess").
		Handle(0, cam).
		Unsigned(1, ni).
		Unsigned(2, nj).
		Float(3, minZ).
		Float(4, maxZ).
		Unsigned(5, o.level)
	return c.handle(ctx, call)
}

// CorrectRationalCamera shifts a rational camera by an image offset.
func (c *Client) CorrectRationalCamera(ctx context.Context, cam model.Handle, dx, dy float64) (model.Handle, error) {
	call := batch.NewCall("vpglCorrectRationalCameraProcess").
		Handle(0, cam).
		Double(1, dx).
		Double(2, dy)
	return c.handle(ctx, call)
}

// RationalCameraOffsets returns the image offsets of a rational camera. Both
// values are removed from the host database once read.
func (c *Client) RationalCameraOffsets(ctx context.Context, cam model.Handle) (du, dv float64, err error) {
	call := batch.NewCall("vpglGetRationalCameraOffsetsProcess").Handle(0, cam)
	err = c.exec(ctx, call, func(r *batch.Reader) {
		rr := r.Releasing()
		du = rr.Double(0)
		dv = rr.Double(1)
	})
	if err != nil {
		return 0, 0, err
	}
	return du, dv, nil
}

// PerturbCamera rotates cam by a random angle about its principal axis and
// returns the new camera with the sampled angles.
func (c *Client) PerturbCamera(ctx context.Context, cam model.Handle, angle float32, rng model.Handle) (out model.Handle, theta, phi float32, err error) {
	call := batch.NewCall("vpglPerturbPerspCamOrientProcess").
		Handle(0, cam).
		Float(1, angle).
		Handle(2, rng)
	err = c.exec(ctx, call, func(r *batch.Reader) {
		out = r.Handle(0)
		th := r.Handle(1)
		ph := r.Handle(2)
		theta = r.FetchFloat(1, th)
		phi = r.FetchFloat(2, ph)
	})
	if err != nil {
		return model.Handle{}, 0, 0, err
	}
	return out, theta, phi, nil
}

// WritePerspectiveCamVRML appends a drawing of cam to a VRML file.
func (c *Client) WritePerspectiveCamVRML(ctx context.Context, path string, cam model.Handle, style VRMLStyle) error {
	call := batch.NewCall("bvrmlWritePerspectiveCamProcess").
		String(0, path).
		Handle(1, cam).
		Float(2, style.CameraRadius).
		Float(3, style.AxisLength).
		Float(4, style.R).
		Float(5, style.G).
		Float(6, style.B)
	return c.run(ctx, call)
}

// RotatePerspectiveCamera returns cam rotated by the angles theta and phi.
func (c *Client) RotatePerspectiveCamera(ctx context.Context, cam model.Handle, theta, phi float32) (model.Handle, error) {
	call := batch.NewCall("vpglRotatePerspCamProcess").
		Handle(0, cam).
		Float(1, theta).
		Float(2, phi)
	return c.handle(ctx, call)
}

// CreatePerspectiveCamera2 copies the calibration of cam to a camera at center.
func (c *Client) CreatePerspectiveCamera2(ctx context.Context, cam model.Handle, center r3.Vector) (model.Handle, error) {
	call := withPoint(batch.NewCall("vpglCreatePerspectiveCameraProcess2").Handle(0, cam), 1, center)
	return c.handle(ctx, call)
}

// CreatePerspectiveCameraWithRot copies the calibration of cam to a camera at
// center rotated by (phi, theta).
func (c *Client) CreatePerspectiveCameraWithRot(ctx context.Context, cam model.Handle, phi, theta float32, center r3.Vector) (model.Handle, error) {
	call := batch.NewCall("vpglCreatePerspectiveCameraProcess3").
		Handle(0, cam).
		Float(1, phi).
		Float(2, theta)
	return c.handle(ctx, withPoint(call, 3, center))
}

// ConvertPerspectiveToNVM exports the cameras in camsDir with the images in
// imgsDir as an NVM file.
func (c *Client) ConvertPerspectiveToNVM(ctx context.Context, camsDir, imgsDir, out string) error {
	call := batch.NewCall("vpglExportCamerasToNvmProcess").
		String(0, camsDir).
		String(1, imgsDir).
		String(2, out)
	return c.run(ctx, call)
}
