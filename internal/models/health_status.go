package models

import "time"

// ErrorCode classifies why a health probe failed.
type ErrorCode string

const (
	ErrorCodeInsufficientQuota ErrorCode = "INSUFFICIENT_QUOTA"
	ErrorCodeNetwork           ErrorCode = "NETWORK_ERROR"
	ErrorCodeTimeout           ErrorCode = "TIMEOUT_ERROR"
	ErrorCodeAuth              ErrorCode = "AUTH_ERROR"
	ErrorCodeModelNotFound     ErrorCode = "MODEL_NOT_FOUND"
	ErrorCodeServer            ErrorCode = "SERVER_ERROR"
	ErrorCodeRateLimit         ErrorCode = "RATE_LIMIT"
	ErrorCodeConfig            ErrorCode = "CONFIG_ERROR"
	ErrorCodeNoAPIEndpoint     ErrorCode = "NO_API_ENDPOINT"
	ErrorCodeInvalidResponse   ErrorCode = "INVALID_RESPONSE"
	ErrorCodeAPI               ErrorCode = "API_ERROR"
	ErrorCodeUnknown           ErrorCode = "UNKNOWN_ERROR"
)

// String returns the wire representation of the code
func (c ErrorCode) String() string {
	return string(c)
}

// ModelHealthStatus is the result of a single health probe.
type ModelHealthStatus struct {
	ModelID      string    `json:"modelId"`
	Name         string    `json:"name"`
	Available    bool      `json:"available"`
	LastChecked  time.Time `json:"lastChecked"`
	Error        string    `json:"error,omitempty"`
	ErrorCode    ErrorCode `json:"errorCode,omitempty"`
	ErrorDetails string    `json:"errorDetails,omitempty"`
	ResponseTime int64     `json:"responseTime"` // milliseconds
	IsCustom     bool      `json:"isCustom"`
}
