package overstrike

import "testing"

func TestDecodeNoOverstrikePassesThrough(t *testing.T) {
	in := []byte("plain text, no backspaces")
	out := Decode(in)
	if string(out) != string(in) {
		t.Fatalf("expected %q, got %q", in, out)
	}
}

func TestDecodeUnderline(t *testing.T) {
	out := Decode([]byte("_\bX"))
	want := sgrUnderline + "X" + sgrReset
	if string(out) != want {
		t.Fatalf("expected %q, got %q", want, out)
	}
}

func TestDecodeBold(t *testing.T) {
	out := Decode([]byte("X\bX"))
	want := sgrBold + "X" + sgrReset
	if string(out) != want {
		t.Fatalf("expected %q, got %q", want, out)
	}
}

func TestDecodeReverse(t *testing.T) {
	out := Decode([]byte("X\bY"))
	want := sgrReverse + "Y" + sgrReset
	if string(out) != want {
		t.Fatalf("expected %q, got %q", want, out)
	}
}

func TestDecodeHelloBold(t *testing.T) {
	// Each letter of "Hello" doubled across a backspace, man-page style.
	in := "H\bHe\bel\bll\blo\bo\n"
	out := Decode([]byte(in))
	want := sgrBold + "H" + sgrReset +
		sgrBold + "e" + sgrReset +
		sgrBold + "l" + sgrReset +
		sgrBold + "l" + sgrReset +
		sgrBold + "o" + sgrReset +
		"\n"
	if string(out) != want {
		t.Fatalf("expected %q, got %q", want, out)
	}
}

func TestDecodeIsIdempotent(t *testing.T) {
	in := []byte("X\bYplain")
	once := Decode(in)
	twice := Decode(once)
	if string(once) != string(twice) {
		t.Fatalf("decode not idempotent: %q vs %q", once, twice)
	}
}
