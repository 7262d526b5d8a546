package api

import (
	"fmt"
	"io"

	json "github.com/goccy/go-json"
	"github.com/labstack/echo/v5"
)

type streamEvent struct {
	Type           string            `json:"type"`
	SequenceNumber int               `json:"sequence_number"`
	Index          int               `json:"index,omitempty"`
	TokenID        *int              `json:"token_id,omitempty"`
	Text           string            `json:"text,omitempty"`
	Generation     *GenerateResponse `json:"generation,omitempty"`
	Error          *ErrorBody        `json:"error,omitempty"`
}

// SSEStreamWriter emits generation.token events as tokens are appended,
// followed by exactly one generation.completed or generation.failed event.
type SSEStreamWriter struct {
	w       io.Writer
	flusher func()
	seq     int
	index   int
	err     error
}

func NewSSEStreamWriter(c *echo.Context) (*SSEStreamWriter, error) {
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")

	flusher, ok := res.(interface{ Flush() })
	if !ok {
		return nil, fmt.Errorf("streaming unsupported")
	}
	return &SSEStreamWriter{
		w:       res,
		flusher: flusher.Flush,
		seq:     1,
	}, nil
}

// Token is a TokenFunc. The first write error is kept and later tokens are
// dropped; request cancellation stops the decode itself.
func (s *SSEStreamWriter) Token(id int, text string) {
	if s.err != nil {
		return
	}
	tok := id
	s.err = s.send(streamEvent{
		Type:    "generation.token",
		Index:   s.index,
		TokenID: &tok,
		Text:    text,
	})
	s.index++
}

func (s *SSEStreamWriter) Completed(resp *GenerateResponse) error {
	if s.err != nil {
		return s.err
	}
	return s.send(streamEvent{
		Type:       "generation.completed",
		Generation: resp,
	})
}

func (s *SSEStreamWriter) Failed(body ErrorBody) error {
	if s.err != nil {
		return s.err
	}
	return s.send(streamEvent{
		Type:  "generation.failed",
		Error: &body,
	})
}

// Err reports the first write failure, if any.
func (s *SSEStreamWriter) Err() error {
	return s.err
}

func (s *SSEStreamWriter) send(ev streamEvent) error {
	ev.SequenceNumber = s.seq
	s.seq++
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", ev.Type, payload); err != nil {
		return err
	}
	s.flusher()
	return nil
}
