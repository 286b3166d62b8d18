package logging

import (
	"bytes"
	"io"
	"net/http"
	"time"
)

// HTTPLogger logs the SOAP traffic between socos and the speakers.
// Everything goes out at debug level; at any other level the logger is
// free and silent.
type HTTPLogger struct {
	logger      *Logger
	maxBodySize int
}

// NewHTTPLogger creates an HTTP logger writing to the given logger.
func NewHTTPLogger(logger *Logger) *HTTPLogger {
	return &HTTPLogger{
		logger:      logger,
		maxBodySize: 10000, // SOAP envelopes are small; queue Browse results are not
	}
}

// LogRequest logs an outgoing SOAP request.
func (h *HTTPLogger) LogRequest(req *http.Request, body []byte) {
	fields := Fields{
		"method": req.Method,
		"url":    req.URL.String(),
	}
	// The SOAPACTION header carries "service#action", which is the one
	// piece of the request worth seeing at a glance.
	if action := req.Header.Get("SOAPACTION"); action != "" {
		fields["action"] = action
	}
	if len(body) > 0 {
		fields["body"] = truncateBody(body, h.maxBodySize)
		fields["body_size"] = len(body)
	}
	h.logger.Debug("SOAP request", fields)
}

// LogResponse logs a SOAP response.
func (h *HTTPLogger) LogResponse(resp *http.Response, body []byte, duration time.Duration) {
	fields := Fields{
		"status":      resp.StatusCode,
		"duration_ms": duration.Milliseconds(),
	}
	if len(body) > 0 {
		fields["body"] = truncateBody(body, h.maxBodySize)
		fields["body_size"] = len(body)
	}
	h.logger.Debug("SOAP response", fields)
}

// LogError logs a transport-level failure talking to a speaker.
func (h *HTTPLogger) LogError(err error, req *http.Request) {
	h.logger.Error("SOAP request failed", err, Fields{
		"method": req.Method,
		"url":    req.URL.String(),
	})
}

// RoundTripperWrapper wraps an http.RoundTripper with SOAP logging.
type RoundTripperWrapper struct {
	wrapped http.RoundTripper
	logger  *HTTPLogger
	logBody bool
}

// NewLoggingRoundTripper creates a logging round tripper. A nil wrapped
// transport means http.DefaultTransport.
func NewLoggingRoundTripper(wrapped http.RoundTripper, logger *HTTPLogger, logBody bool) *RoundTripperWrapper {
	if wrapped == nil {
		wrapped = http.DefaultTransport
	}
	return &RoundTripperWrapper{
		wrapped: wrapped,
		logger:  logger,
		logBody: logBody,
	}
}

// RoundTrip implements http.RoundTripper.
func (rt *RoundTripperWrapper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	var reqBody []byte
	if rt.logBody && req.Body != nil {
		reqBody, _ = io.ReadAll(req.Body)
		req.Body = io.NopCloser(bytes.NewBuffer(reqBody))
	}
	rt.logger.LogRequest(req, reqBody)

	resp, err := rt.wrapped.RoundTrip(req)
	duration := time.Since(start)

	if err != nil {
		rt.logger.LogError(err, req)
		return nil, err
	}

	var respBody []byte
	if rt.logBody {
		respBody, _ = io.ReadAll(resp.Body)
		resp.Body = io.NopCloser(bytes.NewBuffer(respBody))
	}
	rt.logger.LogResponse(resp, respBody, duration)

	return resp, nil
}

// truncateBody truncates a body for logging if it is too large.
func truncateBody(body []byte, maxSize int) string {
	if len(body) <= maxSize {
		return string(body)
	}
	return string(body[:maxSize]) + "...[truncated]"
}
