package executor

import (
	"context"

	"github.com/coderunr/editor/internal/types"
)

// ClientFunc adapts a function to the Client interface
type ClientFunc func(ctx context.Context, request types.ExecuteRequest) (*types.ExecuteResponse, error)

// Execute calls f(ctx, request)
func (f ClientFunc) Execute(ctx context.Context, request types.ExecuteRequest) (*types.ExecuteResponse, error) {
	return f(ctx, request)
}
