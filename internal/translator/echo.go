package translator

import "context"

// Echo returns the user content unchanged. Useful for dry runs.
type Echo struct{}

func (Echo) Name() string {
	return "echo"
}

func (Echo) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &CompletionResponse{Text: req.UserContent, Model: "echo"}, nil
}
