package main

import (
	"github.com/spf13/cobra"
)

func (c *cli) lvcsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lvcs",
		Short: "Work with local vertical coordinate systems",
	}

	create := &cobra.Command{
		Use:   "create <lat> <lon> <el> <cs-name>",
		Short: "Create an LVCS in the host database",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseFloats(args[:3])
			if err != nil {
				return err
			}
			h, err := c.adaptor().CreateLVCS(cmd.Context(), f[0], f[1], f[2], args[3])
			if err != nil {
				return err
			}
			return c.print(h)
		},
	}

	toLocal := &cobra.Command{
		Use:   "to-local <lvcs-file> <lat> <lon> <el>",
		Short: "Convert a geodetic position to local coordinates",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseFloats(args[1:])
			if err != nil {
				return err
			}
			p, err := c.adaptor().ConvertToLocalCoordinates(cmd.Context(), args[0], f[0], f[1], f[2])
			if err != nil {
				return err
			}
			return c.print(point{X: p.X, Y: p.Y, Z: p.Z})
		},
	}

	save := &cobra.Command{
		Use:   "save <lat> <lon> <hae> <path>",
		Short: "Write an LVCS to a file",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseFloats(args[:3])
			if err != nil {
				return err
			}
			if err := c.adaptor().SaveLVCS(cmd.Context(), f[0], f[1], f[2], args[3]); err != nil {
				return err
			}
			return c.print(map[string]string{"saved": args[3]})
		},
	}

	cmd.AddCommand(create, toLocal, save)
	return cmd
}

func (c *cli) exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export cameras to other formats",
	}
	nvm := &cobra.Command{
		Use:   "nvm <cams-dir> <imgs-dir> <out>",
		Short: "Export a directory of cameras to an NVM file",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.adaptor().ConvertPerspectiveToNVM(cmd.Context(), args[0], args[1], args[2]); err != nil {
				return err
			}
			return c.print(map[string]string{"saved": args[2]})
		},
	}
	cmd.AddCommand(nvm)
	return cmd
}
