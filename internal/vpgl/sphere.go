package vpgl

import (
	"math"

	"github.com/golang/geo/r3"
)

// CameraCenter returns the point at the given azimuth and elevation (both in
// degrees, elevation measured from +Z) and radius from look.
func CameraCenter(azimuthDeg, elevationDeg, radius float64, look r3.Vector) r3.Vector {
	az := azimuthDeg * math.Pi / 180
	el := elevationDeg * math.Pi / 180
	d := r3.Vector{
		X: math.Sin(el) * math.Cos(az),
		Y: math.Sin(el) * math.Sin(az),
		Z: math.Cos(el),
	}
	return look.Add(d.Mul(radius))
}

// CartToSphere returns the spherical coordinates of p about center, with
// angles in degrees. It is the inverse of CameraCenter.
func CartToSphere(p, center r3.Vector) (azimuthDeg, elevationDeg, radius float64) {
	d := p.Sub(center)
	radius = d.Norm()
	if radius == 0 {
		return 0, 0, 0
	}
	az := math.Atan2(d.Y, d.X)
	el := math.Acos(d.Z / radius)
	return az * 180 / math.Pi, el * 180 / math.Pi, radius
}
