package main

import (
	"github.com/spf13/cobra"
)

func (c *cli) processesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "processes",
		Short: "List the processes the host serves",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sigs, err := c.client().ListProcesses(cmd.Context())
			if err != nil {
				return err
			}
			return c.print(sigs)
		},
	}
}

func (c *cli) runsCmd() *cobra.Command {
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := c.client().ListRuns(cmd.Context(), limit, offset)
			if err != nil {
				return err
			}
			return c.print(list)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum runs to list")
	cmd.Flags().IntVar(&offset, "offset", 0, "Runs to skip")
	return cmd
}

func (c *cli) runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <id>",
		Short: "Show one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := c.client().GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.print(run)
		},
	}
}

func (c *cli) valueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "value <id>",
		Short: "Show a value held by the host database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			v, err := c.client().GetOutput(cmd.Context(), id)
			if err != nil {
				return err
			}
			return c.print(v)
		},
	}
}

func (c *cli) releaseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "release <id>",
		Short: "Remove a value from the host database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := c.client().RemoveData(cmd.Context(), id); err != nil {
				return err
			}
			return c.print(map[string]uint64{"released": id})
		},
	}
}
