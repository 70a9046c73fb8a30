package models

// Source points at the document fragment an answer was grounded on.
type Source struct {
	Filename   string  `json:"filename"`
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
}

// AnswerBundle is the result of one question-answering request.
type AnswerBundle struct {
	Answer       string   `json:"answer"`
	Sources      []Source `json:"sources"`
	TokensUsed   int      `json:"tokens_used"`
	ResponseTime float64  `json:"response_time"`
	Cached       bool     `json:"cached"`
}

// CachedAnswer is the cacheable part of an AnswerBundle. Cached and
// ResponseTime are request-specific and stamped on each lookup.
type CachedAnswer struct {
	Answer     string   `json:"answer"`
	Sources    []Source `json:"sources"`
	TokensUsed int      `json:"tokens_used"`
}
