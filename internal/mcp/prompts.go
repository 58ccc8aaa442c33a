package mcp

import "encoding/json"

// Prompt templates are deliberately out of scope for this server; these
// handlers keep both methods routed without maintaining a template library.
// prompts/list returns an empty list, and prompts/get answers every name
// with an "Unknown prompt" error (-32601).

func (d *Dispatcher) handlePromptsList(req *Request) *Response {
	return resultResponse(req.ID, map[string]any{"prompts": []promptInfo{}})
}

func (d *Dispatcher) handlePromptsGet(req *Request) *Response {
	var params promptGetParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, CodeInvalidParams, "Invalid params: "+err.Error())
	}
	return errorResponse(req.ID, CodeMethodNotFound, "Unknown prompt: "+params.Name)
}
