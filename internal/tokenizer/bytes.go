package tokenizer

import (
	"fmt"
	"strings"
)

const (
	// ByteEOS ends a byte-level sequence.
	ByteEOS = 256
	// ByteBOS optionally starts one.
	ByteBOS = 257
	// ByteVocabSize covers the 256 byte values plus EOS and BOS.
	ByteVocabSize = 258
)

// Bytes maps every byte of the UTF-8 input to its own id. Ids 256 and 257
// are the EOS and BOS markers and never appear in Encode output unless
// AddBOS is set.
type Bytes struct {
	AddBOS bool
}

var _ Tokenizer = Bytes{}

func (b Bytes) VocabSize() int { return ByteVocabSize }
func (b Bytes) EOSID() int     { return ByteEOS }
func (b Bytes) BOSID() int     { return ByteBOS }

func (b Bytes) Encode(text string) ([]int, error) {
	ids := make([]int, 0, len(text)+1)
	if b.AddBOS {
		ids = append(ids, ByteBOS)
	}
	for i := 0; i < len(text); i++ {
		ids = append(ids, int(text[i]))
	}
	return ids, nil
}

// Decode drops the EOS and BOS markers. Invalid UTF-8 is passed through as
// raw bytes.
func (b Bytes) Decode(ids []int) (string, error) {
	var sb strings.Builder
	sb.Grow(len(ids))
	for _, id := range ids {
		switch {
		case id >= 0 && id < 256:
			sb.WriteByte(byte(id))
		case id == ByteEOS || id == ByteBOS:
		default:
			return "", fmt.Errorf("token id %d outside byte vocabulary", id)
		}
	}
	return sb.String(), nil
}

// TokenString renders one id for display, naming the special markers.
func (b Bytes) TokenString(id int) string {
	switch {
	case id == ByteEOS:
		return "<eos>"
	case id == ByteBOS:
		return "<bos>"
	case id >= 0 && id < 256:
		return string([]byte{byte(id)})
	default:
		return ""
	}
}
