package main

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/spf13/cobra"

	"github.com/seantiz/batchcam/internal/model"
	"github.com/seantiz/batchcam/internal/vpgl"
)

type loadFunc func(*vpgl.Client, context.Context, string) (model.Handle, error)

type saveFunc func(*vpgl.Client, context.Context, model.Handle, string) error

var cameraLoaders = map[string]loadFunc{
	"perspective":    (*vpgl.Client).LoadPerspectiveCamera,
	"affine":         (*vpgl.Client).LoadAffineCamera,
	"projective":     (*vpgl.Client).LoadProjectiveCamera,
	"rational":       (*vpgl.Client).LoadRationalCamera,
	"rational-nitf":  (*vpgl.Client).LoadRationalCameraNITF,
	"local-rational": (*vpgl.Client).LoadLocalRationalCamera,
	"geotiff": func(c *vpgl.Client, ctx context.Context, path string) (model.Handle, error) {
		return c.LoadGeotiffCamera(ctx, path, vpgl.GeotiffOptions{})
	},
}

var cameraSavers = map[string]saveFunc{
	"perspective": (*vpgl.Client).SavePerspectiveCamera,
	"rational":    (*vpgl.Client).SaveRationalCamera,
	"vrml":        (*vpgl.Client).SavePerspectiveCameraVRML,
	"tfw":         (*vpgl.Client).SaveGeocamToTFW,
}

func kinds[F any](m map[string]F) string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	slices.Sort(names)
	return strings.Join(names, ", ")
}

func (c *cli) cameraCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "camera",
		Short: "Load, save and query cameras",
	}

	load := &cobra.Command{
		Use:   "load <kind> <path>",
		Short: "Load a camera file (kinds: " + kinds(cameraLoaders) + ")",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fn, ok := cameraLoaders[args[0]]
			if !ok {
				return fmt.Errorf("unknown camera kind %q (want one of %s)", args[0], kinds(cameraLoaders))
			}
			h, err := fn(c.adaptor(), cmd.Context(), args[1])
			if err != nil {
				return err
			}
			return c.print(h)
		},
	}

	save := &cobra.Command{
		Use:   "save <kind> <id> <path>",
		Short: "Save a camera to a file (kinds: " + kinds(cameraSavers) + ")",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			fn, ok := cameraSavers[args[0]]
			if !ok {
				return fmt.Errorf("unknown camera kind %q (want one of %s)", args[0], kinds(cameraSavers))
			}
			h, err := cameraHandle(args[1])
			if err != nil {
				return err
			}
			if err := fn(c.adaptor(), cmd.Context(), h, args[2]); err != nil {
				return err
			}
			return c.print(map[string]string{"saved": args[2]})
		},
	}

	project := &cobra.Command{
		Use:   "project <id> <x> <y> <z>",
		Short: "Project a world point into a camera image",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := cameraHandle(args[0])
			if err != nil {
				return err
			}
			xyz, err := parseFloats(args[1:])
			if err != nil {
				return err
			}
			p := r3.Vector{X: float64(xyz[0]), Y: float64(xyz[1]), Z: float64(xyz[2])}
			u, v, err := c.adaptor().ProjectPoint(cmd.Context(), h, p)
			if err != nil {
				return err
			}
			return c.print(map[string]float32{"u": u, "v": v})
		},
	}

	center := &cobra.Command{
		Use:   "center <id>",
		Short: "Print the center of a perspective camera",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := cameraHandle(args[0])
			if err != nil {
				return err
			}
			p, err := c.adaptor().PerspectiveCameraCenter(cmd.Context(), h)
			if err != nil {
				return err
			}
			return c.print(point{X: p.X, Y: p.Y, Z: p.Z})
		},
	}

	cmd.AddCommand(load, save, project, center)
	return cmd
}
