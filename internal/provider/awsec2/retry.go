package awsec2

import (
	"context"
	"errors"
	"time"

	"github.com/aws/smithy-go"
	"github.com/cenkalti/backoff/v4"
)

// throttleCodes are the API error codes worth retrying. Everything else is
// surfaced immediately.
var throttleCodes = map[string]struct{}{
	"Throttling":                  {},
	"ThrottlingException":         {},
	"RequestLimitExceeded":        {},
	"IncorrectState":              {},
	"IncorrectVpcAttachmentState": {},
	"InvalidTransitGatewayAttachmentID.Unavailable": {},
}

func isRetryable(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	_, ok := throttleCodes[apiErr.ErrorCode()]
	return ok
}

// withRetry runs op under exponential backoff, retrying only throttling and
// transient-state errors.
func withRetry(ctx context.Context, op func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxElapsedTime = 2 * time.Minute

	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if isRetryable(err) {
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(policy, ctx))
}

// waitFor polls probe until it reports done, with exponential backoff up to
// the given deadline. Used for resources the SDK has no waiter for.
func waitFor(ctx context.Context, maxWait time.Duration, probe func() (bool, error)) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 2 * time.Second
	policy.MaxInterval = 30 * time.Second
	policy.MaxElapsedTime = maxWait

	return backoff.Retry(func() error {
		done, err := probe()
		if err != nil {
			if isRetryable(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		if !done {
			return errors.New("not ready yet")
		}
		return nil
	}, backoff.WithContext(policy, ctx))
}
