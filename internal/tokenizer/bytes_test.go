package tokenizer

import (
	"reflect"
	"testing"
)

func TestBytesRoundTrip(t *testing.T) {
	t.Parallel()

	tok := Bytes{}
	for _, text := range []string{"", "hello", "介紹你自己", "tab\tnew\nline"} {
		ids, err := tok.Encode(text)
		if err != nil {
			t.Fatalf("Encode(%q): %v", text, err)
		}
		if len(ids) != len(text) {
			t.Fatalf("Encode(%q): %d ids for %d bytes", text, len(ids), len(text))
		}
		got, err := tok.Decode(ids)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if got != text {
			t.Fatalf("round trip: got %q, want %q", got, text)
		}
	}
}

func TestBytesSpecialTokens(t *testing.T) {
	t.Parallel()

	tok := Bytes{AddBOS: true}
	ids, _ := tok.Encode("hi")
	if want := []int{ByteBOS, 'h', 'i'}; !reflect.DeepEqual(ids, want) {
		t.Fatalf("Encode = %v, want %v", ids, want)
	}
	got, err := tok.Decode(append(ids, ByteEOS))
	if err != nil || got != "hi" {
		t.Fatalf("Decode = %q, %v; want \"hi\"", got, err)
	}
	if _, err := tok.Decode([]int{ByteVocabSize}); err == nil {
		t.Fatalf("expected error for id outside vocabulary")
	}
	if tok.TokenString(ByteEOS) != "<eos>" || tok.TokenString('a') != "a" || tok.TokenString(-1) != "" {
		t.Fatalf("unexpected TokenString output")
	}
}
