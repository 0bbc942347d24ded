// Package bridge runs host processes in an external executable. The host
// spawns the bridge once per run, writes a single framed Request to its
// stdin and reads framed log and result Messages from its stdout.
//
// Frames are a 4-byte big-endian length followed by a JSON payload. The
// Agent type implements the bridge side for bridges written in Go.
package bridge
