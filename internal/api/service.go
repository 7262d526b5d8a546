package api

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/samcharles93/tokenloop/internal/decode"
	"github.com/samcharles93/tokenloop/internal/logger"
	"github.com/samcharles93/tokenloop/internal/logits"
	"github.com/samcharles93/tokenloop/internal/tokenizer"
)

// TokenFunc receives each generated token with its rendered text. The id is
// authoritative; text is empty for a token whose bytes only form valid UTF-8
// together with later tokens, and then carries the whole held-back run.
type TokenFunc func(id int, text string)

type GenerationService struct {
	registry     *Registry
	defaultModel string
	log          logger.Logger
	clock        func() time.Time
}

func NewGenerationService(registry *Registry, defaultModel string, log logger.Logger) *GenerationService {
	if log == nil {
		log = logger.Discard()
	}
	return &GenerationService{
		registry:     registry,
		defaultModel: defaultModel,
		log:          log,
		clock:        time.Now,
	}
}

func (s *GenerationService) Models() []ModelInfo {
	return s.registry.List()
}

// Generate resolves the request against the model's defaults and runs one
// decode. Nothing is returned for a failed decode.
func (s *GenerationService) Generate(ctx context.Context, req *GenerateRequest, onToken TokenFunc) (*GenerateResponse, error) {
	name := req.Model
	if name == "" {
		name = s.defaultModel
	}
	opts, err := req.options()
	if err != nil {
		return nil, err
	}

	var resp *GenerateResponse
	err = s.registry.WithModel(ctx, name, func(e Entry) error {
		prompt, err := promptTokens(req, e)
		if err != nil {
			return err
		}
		cfg := decode.Resolve(opts, e.Defaults)

		d := &decode.Decoder{
			Model: e.Model,
			Log:   s.log,
		}
		if onToken != nil {
			ts := &textStream{tok: e.Tokenizer}
			d.OnToken = func(id int) {
				onToken(id, ts.push(id))
			}
		}

		seq, stats, err := d.DecodeWithStats(ctx, prompt, cfg)
		if err != nil {
			return err
		}

		completion := seq[len(prompt):]
		text := ""
		if e.Tokenizer != nil {
			text, err = e.Tokenizer.Decode(completion)
			if err != nil {
				return fmt.Errorf("decode completion: %w", err)
			}
		}
		resp = &GenerateResponse{
			ID:         newGenerationID(),
			Object:     "generation",
			CreatedAt:  s.clock().Unix(),
			Model:      name,
			Tokens:     seq,
			Completion: completion,
			Text:       text,
			StopReason: string(stats.StopReason),
			Usage: Usage{
				PromptTokens:     len(prompt),
				CompletionTokens: len(completion),
				TotalTokens:      len(seq),
			},
		}
		s.log.Info("generation complete",
			"id", resp.ID,
			"model", name,
			"prompt_tokens", len(prompt),
			"completion_tokens", len(completion),
			"stop", resp.StopReason,
			"tps", stats.TPS,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (r *GenerateRequest) options() (decode.Options, error) {
	opts := decode.Options{
		MaxLength:    r.MaxLength,
		MaxNewTokens: r.MaxNewTokens,
		EOSTokenID:   r.EOSTokenID,
		Temperature:  r.Temperature,
		TopK:         r.TopK,
		Seed:         r.Seed,
		UseCache:     r.UseCache,
	}
	if r.Mode != nil {
		mode, err := logits.ParseMode(*r.Mode)
		if err != nil {
			return opts, newInvalidRequest(err.Error())
		}
		opts.Mode = &mode
	}
	return opts, nil
}

func promptTokens(req *GenerateRequest, e Entry) ([]int, error) {
	ids := req.PromptTokens
	if len(ids) == 0 {
		if req.Prompt == "" {
			return nil, newInvalidRequest("prompt or prompt_tokens is required")
		}
		if e.Tokenizer == nil {
			return nil, newInvalidRequest("model has no tokenizer; send prompt_tokens")
		}
		var err error
		ids, err = e.Tokenizer.Encode(req.Prompt)
		if err != nil {
			return nil, newInvalidRequest(fmt.Sprintf("encode prompt: %v", err))
		}
	}
	vocab := e.Model.VocabSize()
	for i, id := range ids {
		if id < 0 || id >= vocab {
			return nil, newInvalidRequest(fmt.Sprintf("prompt_tokens[%d] = %d outside vocabulary of %d", i, id, vocab))
		}
	}
	return ids, nil
}

// maxHeldTokens bounds how long textStream waits for a UTF-8 sequence to
// complete; no encoding needs more than four byte tokens.
const maxHeldTokens = 4

// textStream renders tokens incrementally, holding ids back until their
// combined text is valid UTF-8.
type textStream struct {
	tok     tokenizer.Tokenizer
	pending []int
}

func (t *textStream) push(id int) string {
	if t.tok == nil {
		return ""
	}
	t.pending = append(t.pending, id)
	text, err := t.tok.Decode(t.pending)
	if err != nil {
		t.pending = t.pending[:0]
		return ""
	}
	if !utf8.ValidString(text) && len(t.pending) < maxHeldTokens {
		return ""
	}
	t.pending = t.pending[:0]
	return strings.ToValidUTF8(text, "\uFFFD")
}
