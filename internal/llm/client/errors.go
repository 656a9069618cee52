package llmclient

import "errors"

// ErrEmptyResponse is returned when the provider answered without content.
var ErrEmptyResponse = errors.New("llm: empty completion")

// RefusalError reports that the model declined to answer.
type RefusalError struct {
	Provider string
	Reason   string
}

func (e *RefusalError) Error() string {
	if e.Reason == "" {
		return e.Provider + ": model refused the request"
	}
	return e.Provider + ": model refused the request: " + e.Reason
}
