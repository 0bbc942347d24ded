package bridge

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/seantiz/batchcam/internal/model"
)

// MaxMessageSize is the maximum allowed frame payload (16 MiB).
const MaxMessageSize = 16 << 20

// Request is the payload the host writes to a bridge executable's stdin.
type Request struct {
	Process  string                 `json:"process"`
	RunID    string                 `json:"run_id"`
	Inputs   []model.Value          `json:"inputs"`
	Refs     map[uint64]model.Value `json:"refs,omitempty"`
	TimeoutS int                    `json:"timeout_s"`
}

// Response is the final result of a bridged run. A non-empty Error marks the
// run as failed.
type Response struct {
	Outputs []model.Value `json:"outputs,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// Bridge-to-host message types.
const (
	MsgTypeLog    = "log"
	MsgTypeResult = "result"
)

// Message is the envelope for all bridge-to-host frames. While a process
// runs the bridge sends log lines with Type="log"; it finishes with exactly
// one Type="result" message.
type Message struct {
	Type     string    `json:"type"`
	Line     string    `json:"line,omitempty"`
	Response *Response `json:"response,omitempty"`
}

// ErrFrameTooLarge is returned when a frame exceeds MaxMessageSize.
var ErrFrameTooLarge = errors.New("frame too large")

// WriteMessage writes a length-prefixed JSON message to w.
// The frame format is: 4-byte big-endian length prefix followed by the JSON payload.
func WriteMessage(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if len(data) > MaxMessageSize {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(data))
	}

	frame := make([]byte, 4+len(data))
	binary.BigEndian.PutUint32(frame, uint32(len(data)))
	copy(frame[4:], data)
	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// ReadMessage reads a length-prefixed JSON message from r and decodes it into v.
func ReadMessage(r io.Reader, v any) error {
	var length uint32
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return fmt.Errorf("read length prefix: %w", err)
	}
	if length > MaxMessageSize {
		return fmt.Errorf("%w: %d exceeds maximum %d", ErrFrameTooLarge, length, MaxMessageSize)
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return fmt.Errorf("read payload: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal message: %w", err)
	}
	return nil
}

// readMessages reads Message frames from r until the result arrives. Log
// lines are delivered to logWriter as they are read.
func readMessages(r io.Reader, logWriter func(string)) (Response, error) {
	for {
		var msg Message
		if err := ReadMessage(r, &msg); err != nil {
			return Response{}, fmt.Errorf("read bridge message: %w", err)
		}

		switch msg.Type {
		case MsgTypeLog:
			if logWriter != nil {
				logWriter(msg.Line)
			}
		case MsgTypeResult:
			if msg.Response == nil {
				return Response{}, fmt.Errorf("received result message with nil response")
			}
			return *msg.Response, nil
		default:
			return Response{}, fmt.Errorf("unknown message type: %q", msg.Type)
		}
	}
}
