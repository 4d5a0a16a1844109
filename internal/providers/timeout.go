package providers

import (
	"context"
	"fmt"
	"time"

	"archreview/internal/models"
)

// ChatWithTimeout races a chat call against timeout. When the timer wins the
// call is cancelled through its context and its eventual result is discarded.
// If the parent context ends first its error is returned as is, so a caller
// going away is not reported as a timeout. A panicking client is reported as
// an error.
func ChatWithTimeout(parent context.Context, client ChatClient, req ChatRequest, timeout time.Duration) (*ChatResponse, error) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	type result struct {
		resp *ChatResponse
		err  error
	}
	done := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("%s client panicked: %v", client.Type(), r)}
			}
		}()
		resp, err := client.Chat(ctx, req)
		done <- result{resp: resp, err: err}
	}()

	select {
	case r := <-done:
		return r.resp, r.err
	case <-ctx.Done():
		if err := parent.Err(); err != nil {
			return nil, err
		}
		return nil, &Error{
			Code:    models.ErrorCodeTimeout,
			Message: "request timed out after " + timeout.String(),
			Err:     ctx.Err(),
		}
	}
}
