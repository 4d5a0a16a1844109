package health

import (
	"context"
	"errors"
	"net"
	"strings"

	"archreview/internal/models"
	"archreview/internal/providers"
)

// messageRule maps message fragments to an error code. Rules are checked in
// order and the first match wins.
type messageRule struct {
	code      models.ErrorCode
	fragments []string
}

var messageRules = []messageRule{
	{models.ErrorCodeInsufficientQuota, []string{"insufficient_quota", "insufficient quota", "quota", "balance", "billing"}},
	{models.ErrorCodeNetwork, []string{"connection refused", "connection reset", "no such host", "network", "econnrefused", "enotfound", "dial tcp"}},
	{models.ErrorCodeTimeout, []string{"timeout", "timed out", "deadline exceeded"}},
	{models.ErrorCodeAuth, []string{"unauthorized", "invalid api key", "incorrect api key", "authentication", "401", "forbidden"}},
	{models.ErrorCodeModelNotFound, []string{"model not found", "does not exist", "not found", "404"}},
	{models.ErrorCodeServer, []string{"internal server error", "bad gateway", "service unavailable", "500", "502", "503"}},
	{models.ErrorCodeRateLimit, []string{"rate limit", "too many requests", "429"}},
	{models.ErrorCodeConfig, []string{"config", "api key is required", "missing"}},
}

// Classify maps a probe failure to an error code and a short message.
// Structured provider errors are trusted first, then transport errors, and
// only then the message heuristic.
func Classify(err error) (models.ErrorCode, string) {
	if err == nil {
		return "", ""
	}

	var perr *providers.Error
	if errors.As(err, &perr) && perr.Code != "" {
		return perr.Code, perr.Message
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return models.ErrorCodeTimeout, err.Error()
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return models.ErrorCodeTimeout, err.Error()
		}
		return models.ErrorCodeNetwork, err.Error()
	}

	return ClassifyMessage(err.Error()), err.Error()
}

// ClassifyMessage applies the ordered substring heuristic to msg.
func ClassifyMessage(msg string) models.ErrorCode {
	lower := strings.ToLower(msg)
	for _, rule := range messageRules {
		for _, fragment := range rule.fragments {
			if strings.Contains(lower, fragment) {
				return rule.code
			}
		}
	}
	return models.ErrorCodeUnknown
}
