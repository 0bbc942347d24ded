package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/seantiz/batchcam/internal/config"
	"github.com/seantiz/batchcam/internal/hostclient"
	"github.com/seantiz/batchcam/internal/model"
	"github.com/seantiz/batchcam/internal/vpgl"
)

// cli holds the persistent flags and the writers commands print to.
type cli struct {
	out, errOut io.Writer

	host     string
	timeoutS int
	logLevel string
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	c := &cli{out: out, errOut: errOut}

	defaultHost := config.Default().HostURL
	if cfg, err := config.Load(); err == nil {
		defaultHost = cfg.HostURL
	}

	root := &cobra.Command{
		Use:           "batchcam",
		Short:         "Run camera processes on a batchcam host",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVar(&c.host, "host", defaultHost, "Host URL (or set BATCHCAM_HOST_URL)")
	root.PersistentFlags().IntVar(&c.timeoutS, "timeout", 0, "Run timeout in seconds (0 uses the host default)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	root.AddCommand(
		c.processesCmd(),
		c.runsCmd(),
		c.runCmd(),
		c.valueCmd(),
		c.releaseCmd(),
		c.cameraCmd(),
		c.lvcsCmd(),
		c.exportCmd(),
	)
	return root
}

func (c *cli) logger() *slog.Logger {
	return config.NewLogger(c.errOut, config.ParseLogLevel(c.logLevel))
}

func (c *cli) client() *hostclient.Client {
	return hostclient.New(c.host,
		hostclient.WithTimeout(c.timeoutS),
		hostclient.WithLogger(c.logger()),
	)
}

func (c *cli) adaptor() *vpgl.Client {
	return vpgl.New(c.client(), c.logger())
}

// print writes v as indented JSON.
func (c *cli) print(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid value id %q", s)
	}
	return id, nil
}

func cameraHandle(s string) (model.Handle, error) {
	id, err := parseID(s)
	if err != nil {
		return model.Handle{}, err
	}
	return model.Handle{ID: id, Type: model.TypeCamera}, nil
}

// parseFloats parses args as 32-bit floats.
func parseFloats(args []string) ([]float32, error) {
	out := make([]float32, len(args))
	for i, a := range args {
		f, err := strconv.ParseFloat(a, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", a)
		}
		out[i] = float32(f)
	}
	return out, nil
}

type point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}
