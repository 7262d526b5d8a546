package api

// GenerateRequest is the body of POST /v1/generate. Exactly one of Prompt
// and PromptTokens is used; PromptTokens wins when both are set.
type GenerateRequest struct {
	Model        string   `json:"model,omitempty"`
	Prompt       string   `json:"prompt,omitempty"`
	PromptTokens []int    `json:"prompt_tokens,omitempty"`
	MaxLength    *int     `json:"max_length,omitempty"`
	MaxNewTokens *int     `json:"max_new_tokens,omitempty"`
	EOSTokenID   *int     `json:"eos_token_id,omitempty"`
	Mode         *string  `json:"mode,omitempty"`
	Temperature  *float64 `json:"temperature,omitempty"`
	TopK         *int     `json:"top_k,omitempty"`
	Seed         *int64   `json:"seed,omitempty"`
	UseCache     *bool    `json:"use_cache,omitempty"`
	Stream       *bool    `json:"stream,omitempty"`
}

type GenerateResponse struct {
	ID         string `json:"id"`
	Object     string `json:"object"`
	CreatedAt  int64  `json:"created_at"`
	Model      string `json:"model"`
	Tokens     []int  `json:"tokens"`
	Completion []int  `json:"completion"`
	Text       string `json:"text"`
	StopReason string `json:"stop_reason"`
	Usage      Usage  `json:"usage"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type ErrorBody struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
}

type ModelInfo struct {
	ID        string `json:"id"`
	Object    string `json:"object"`
	VocabSize int    `json:"vocab_size"`
}

type ModelList struct {
	Object string      `json:"object"`
	Data   []ModelInfo `json:"data"`
}

type DeleteResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Deleted bool   `json:"deleted"`
}
