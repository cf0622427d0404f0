// Package agent adapts the translation pipeline to the agent runtime's
// function-call envelope: an ordered parameter list in, a single text body
// out.
package agent

const MessageVersion = "1.0"

type Parameter struct {
	Name  string `json:"name"`
	Type  string `json:"type,omitempty"`
	Value string `json:"value"`
}

type Request struct {
	MessageVersion          string            `json:"messageVersion"`
	ActionGroup             string            `json:"actionGroup"`
	Function                string            `json:"function"`
	Parameters              []Parameter       `json:"parameters"`
	SessionAttributes       map[string]string `json:"sessionAttributes"`
	PromptSessionAttributes map[string]string `json:"promptSessionAttributes"`
}

// Param returns the value of the first parameter called name.
func (r Request) Param(name string) (string, bool) {
	for _, p := range r.Parameters {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

type Response struct {
	MessageVersion          string            `json:"messageVersion"`
	Response                FunctionResult    `json:"response"`
	SessionAttributes       map[string]string `json:"sessionAttributes"`
	PromptSessionAttributes map[string]string `json:"promptSessionAttributes"`
}

type FunctionResult struct {
	ActionGroup      string           `json:"actionGroup"`
	Function         string           `json:"function"`
	FunctionResponse FunctionResponse `json:"functionResponse"`
}

type FunctionResponse struct {
	ResponseBody ResponseBody `json:"responseBody"`
}

type ResponseBody struct {
	Text TextBody `json:"TEXT"`
}

type TextBody struct {
	Body string `json:"body"`
}

// Reply wraps body in a response that echoes req's routing fields and
// session attributes.
func Reply(req Request, body string) Response {
	return Response{
		MessageVersion: MessageVersion,
		Response: FunctionResult{
			ActionGroup: req.ActionGroup,
			Function:    req.Function,
			FunctionResponse: FunctionResponse{
				ResponseBody: ResponseBody{Text: TextBody{Body: body}},
			},
		},
		SessionAttributes:       orEmpty(req.SessionAttributes),
		PromptSessionAttributes: orEmpty(req.PromptSessionAttributes),
	}
}

func orEmpty(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

// Body returns the text carried by the response.
func (r Response) Body() string {
	return r.Response.FunctionResponse.ResponseBody.Text.Body
}
