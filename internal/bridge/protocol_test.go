package bridge

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/seantiz/batchcam/internal/model"
)

func TestWriteReadRequest(t *testing.T) {
	want := Request{
		Process: "vpglProjectProcess",
		RunID:   "01HZX",
		Inputs: []model.Value{
			model.Object(model.TypeCamera, []byte(`{"k":[1,2]}`)),
			model.Float(1), model.Float(2), model.Float(3),
		},
		Refs:     map[uint64]model.Value{7: model.Object(model.TypeCamera, []byte(`{}`))},
		TimeoutS: 30,
	}

	var buf bytes.Buffer
	if err := WriteMessage(&buf, &want); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}

	var decoded Request
	if err := ReadMessage(&buf, &decoded); err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if diff := cmp.Diff(want, decoded); diff != "" {
		t.Errorf("request mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteMessageFrame(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMessage(&buf, map[string]int{"a": 1}); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	raw := buf.Bytes()
	if got := binary.BigEndian.Uint32(raw[:4]); got != uint32(len(raw)-4) {
		t.Errorf("length prefix = %d, want %d", got, len(raw)-4)
	}
	if string(raw[4:]) != `{"a":1}` {
		t.Errorf("payload = %s", raw[4:])
	}
}

func TestReadMessageTruncatedLength(t *testing.T) {
	// Only 2 bytes instead of 4.
	buf := bytes.NewReader([]byte{0x00, 0x01})
	var req Request
	if err := ReadMessage(buf, &req); err == nil {
		t.Fatal("expected error for truncated length prefix")
	}
}

func TestReadMessageTruncatedPayload(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0x00, 0x00, 0x00, 0x64}) // length = 100
	buf.Write([]byte{0x7B, 0x7D})              // "{}"

	var req Request
	if err := ReadMessage(&buf, &req); err == nil {
		t.Fatal("expected error for truncated payload")
	}
}

func TestReadMessageOversized(t *testing.T) {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.BigEndian, uint32(MaxMessageSize+1))

	var req Request
	err := ReadMessage(&buf, &req)
	if !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("error = %v, want ErrFrameTooLarge", err)
	}
}

func framed(t *testing.T, msgs ...Message) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	for _, m := range msgs {
		if err := WriteMessage(&buf, &m); err != nil {
			t.Fatalf("WriteMessage: %v", err)
		}
	}
	return &buf
}

func TestReadMessagesStreamsLogs(t *testing.T) {
	buf := framed(t,
		Message{Type: MsgTypeLog, Line: "loading camera"},
		Message{Type: MsgTypeLog, Line: "projecting"},
		Message{Type: MsgTypeResult, Response: &Response{Outputs: []model.Value{model.Float(4)}}},
	)

	var lines []string
	resp, err := readMessages(buf, func(l string) { lines = append(lines, l) })
	if err != nil {
		t.Fatalf("readMessages: %v", err)
	}
	if diff := cmp.Diff([]string{"loading camera", "projecting"}, lines); diff != "" {
		t.Errorf("log lines mismatch (-want +got):\n%s", diff)
	}
	if len(resp.Outputs) != 1 || resp.Outputs[0].Type != model.TypeFloat {
		t.Errorf("outputs = %+v", resp.Outputs)
	}
}

func TestReadMessagesNilResult(t *testing.T) {
	buf := framed(t, Message{Type: MsgTypeResult})
	if _, err := readMessages(buf, nil); err == nil {
		t.Fatal("expected error for nil response")
	}
}

func TestReadMessagesUnknownType(t *testing.T) {
	buf := framed(t, Message{Type: "progress"})
	if _, err := readMessages(buf, nil); err == nil {
		t.Fatal("expected error for unknown message type")
	}
}

func TestReadMessagesEOFBeforeResult(t *testing.T) {
	buf := framed(t, Message{Type: MsgTypeLog, Line: "partial"})
	if _, err := readMessages(buf, nil); err == nil {
		t.Fatal("expected error when the stream ends without a result")
	}
}
