// Command batchcam drives camera processes on a remote batchcam host.
//
//	batchcam camera load perspective cam.txt
//	batchcam camera center 1
//	batchcam runs --limit 5
//
// Every command prints JSON on stdout.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
