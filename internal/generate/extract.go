package generate

import "strings"

// apiResponse mirrors the subset of the Responses API payload we read.
// The service has shipped more than one shape; extraction walks a fixed
// candidate order rather than trusting any single field to be present.
type apiResponse struct {
	OutputText string      `json:"output_text"`
	Output     []apiOutput `json:"output"`
	Error      *apiError   `json:"error"`
}

type apiOutput struct {
	Content []apiContent `json:"content"`
}

type apiContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type apiError struct {
	Message string `json:"message"`
}

type extractor func(r *apiResponse) (string, bool)

// extractors is the candidate list in priority order. Adding support for
// a new payload shape means appending one entry here.
var extractors = []extractor{
	topLevelOutputText,
	firstOutputContentText,
}

func topLevelOutputText(r *apiResponse) (string, bool) {
	if r.OutputText == "" {
		return "", false
	}
	return r.OutputText, true
}

func firstOutputContentText(r *apiResponse) (string, bool) {
	if len(r.Output) == 0 || len(r.Output[0].Content) == 0 {
		return "", false
	}
	text := r.Output[0].Content[0].Text
	if text == "" {
		return "", false
	}
	return text, true
}

// extractText returns the first non-empty candidate, trimmed, or ""
// when no strategy matched.
func extractText(r *apiResponse) string {
	for _, ex := range extractors {
		if text, ok := ex(r); ok {
			return strings.TrimSpace(text)
		}
	}
	return ""
}
