package journal

import (
	"bytes"
	"testing"
)

// White-box test: a bit flip in the stored payload must surface either as a
// decompression failure or as a checksum mismatch, never as silently wrong
// data.
func TestCorruptPayloadIsDetectable(t *testing.T) {
	j := New(4)

	want := bytes.Repeat([]byte{0xCD}, 4*512)
	if _, err := j.Append(Write, 0, 4, want); err != nil {
		t.Fatal(err)
	}

	e := j.entries[0]
	if !e.compressed {
		t.Fatal("expected a repetitive payload to be stored compressed")
	}

	e.payload[len(e.payload)/2] ^= 0xFF

	got, err := e.Payload()
	if err != nil {
		return // detected as a decompression failure
	}

	if bytes.Equal(got, want) || Checksum(got) == e.Checksum {
		t.Fatal("corruption went undetected")
	}
}
