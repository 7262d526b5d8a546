// Package tokenizer converts between text and token ids for the demo models.
package tokenizer

// Tokenizer is the text ⇄ id capability used by the CLI and HTTP layers.
type Tokenizer interface {
	Encode(text string) ([]int, error)
	Decode(ids []int) (string, error)
}
