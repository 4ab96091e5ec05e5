package journal

import "testing"

func TestEventRecordRoundTrip(t *testing.T) {
	in := Event{Kind: KindFenceFailed, AtMs: 1514764800005, Detail: "watermark=1514764801000"}
	out, ok := DecodeEvent(EncodeEvent(in))
	if !ok {
		t.Fatalf("decode failed")
	}
	if out != in {
		t.Fatalf("got %+v want %+v", out, in)
	}
}

func TestDecodeRejectsCorruption(t *testing.T) {
	b := EncodeEvent(Event{Kind: KindOpened, AtMs: 7, Detail: "x"})
	b[len(b)-5] ^= 0xff
	if _, ok := DecodeEvent(b); ok {
		t.Fatalf("expected crc failure")
	}
	if _, ok := DecodeEvent(b[:3]); ok {
		t.Fatalf("expected short record failure")
	}
}

func TestKindText(t *testing.T) {
	b, _ := KindRegression.MarshalText()
	if string(b) != "regression" || Kind(200).String() != "unknown" {
		t.Fatalf("kind text %q", b)
	}
}
