package graph

import (
	"context"
	"fmt"
	"time"
)

// executeNodeWithTimeout runs a node under the engine-wide default timeout.
// A zero timeout means unlimited execution. A node that overruns its deadline
// yields a NODE_TIMEOUT engine error; the node's own result is discarded.
func executeNodeWithTimeout[S any](
	ctx context.Context,
	node Node[S],
	nodeID string,
	state S,
	timeout time.Duration,
) (NodeResult[S], error) {
	if timeout == 0 {
		return node.Run(ctx, state), nil
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result := node.Run(timeoutCtx, state)

	if timeoutCtx.Err() == context.DeadlineExceeded {
		return result, &EngineError{
			Message: fmt.Sprintf("node %s exceeded timeout of %v", nodeID, timeout),
			Code:    "NODE_TIMEOUT",
		}
	}

	return result, nil
}
