package chatlisp

import (
	"bytes"
	"encoding/binary"
	"io"
	"strings"
	"testing"
)

func TestWireRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMsg(&buf, map[string]any{"id": "r1", "op": "run", "code": "(+ 2 3)"}); err != nil {
		t.Fatal(err)
	}
	msg, err := ReadMsg(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if msg["op"] != "run" || msg["code"] != "(+ 2 3)" {
		t.Fatalf("unexpected message %v", msg)
	}
	if _, err := ReadMsg(&buf); err != io.EOF {
		t.Fatalf("expected io.EOF on empty stream, got %v", err)
	}
}

func TestReadMsgRejectsOversizedFrame(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint32(0xFFFFFFFF))
	_, err := ReadMsg(&buf)
	if err == nil || !strings.Contains(err.Error(), "exceeds") {
		t.Fatalf("expected size error, got %v", err)
	}
}

func TestWriteMsgRejectsOversizedFrame(t *testing.T) {
	var buf bytes.Buffer
	err := WriteMsg(&buf, map[string]any{"code": strings.Repeat("x", MaxMsgSize)})
	if err == nil {
		t.Fatal("expected size error")
	}
	if buf.Len() != 0 {
		t.Fatalf("nothing should be written, got %d bytes", buf.Len())
	}
}

func TestReadMsgTruncatedBody(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint32(10))
	buf.WriteString("{}")
	if _, err := ReadMsg(&buf); err == nil || err == io.EOF {
		t.Fatalf("expected read body error, got %v", err)
	}
}
