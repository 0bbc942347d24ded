package vpgl

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
)

func TestCameraCenter(t *testing.T) {
	look := r3.Vector{X: 10, Y: 20, Z: 0}
	tests := []struct {
		name   string
		az, el float64
		radius float64
		want   r3.Vector
	}{
		{"zenith", 0, 0, 100, r3.Vector{X: 10, Y: 20, Z: 100}},
		{"east horizon", 0, 90, 50, r3.Vector{X: 60, Y: 20, Z: 0}},
		{"north horizon", 90, 90, 50, r3.Vector{X: 10, Y: 70, Z: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CameraCenter(tt.az, tt.el, tt.radius, look)
			if !near(got, tt.want) {
				t.Errorf("CameraCenter = %v, want %v", got, tt.want)
			}
		})
	}
}

func near(a, b r3.Vector) bool {
	return a.Sub(b).Norm() < 1e-9
}

func TestCartToSphereInvertsCameraCenter(t *testing.T) {
	center := r3.Vector{X: -3, Y: 4, Z: 1}
	for _, in := range [][3]float64{{30, 45, 10}, {-120, 80, 250}, {179, 10, 1}} {
		p := CameraCenter(in[0], in[1], in[2], center)
		az, el, rad := CartToSphere(p, center)
		if math.Abs(az-in[0]) > 1e-9 || math.Abs(el-in[1]) > 1e-9 || math.Abs(rad-in[2]) > 1e-9 {
			t.Errorf("CartToSphere(CameraCenter(%v)) = (%v, %v, %v)", in, az, el, rad)
		}
	}
}

func TestCartToSphereAtCenter(t *testing.T) {
	c := r3.Vector{X: 1, Y: 1, Z: 1}
	if az, el, rad := CartToSphere(c, c); az != 0 || el != 0 || rad != 0 {
		t.Errorf("CartToSphere(c, c) = (%v, %v, %v), want zeros", az, el, rad)
	}
}
