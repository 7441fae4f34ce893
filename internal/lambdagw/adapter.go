// Package lambdagw serves an http.Handler from API Gateway proxy events so
// the interactions endpoint can run on AWS Lambda unchanged.
package lambdagw

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/aws/aws-lambda-go/events"
)

// Adapter converts API Gateway proxy requests into calls on an http.Handler.
type Adapter struct {
	handler http.Handler
}

// New wraps handler.
func New(handler http.Handler) *Adapter {
	return &Adapter{handler: handler}
}

// Handle is the Lambda entry point.
func (a *Adapter) Handle(ctx context.Context, evt events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	req, err := newRequest(ctx, evt)
	if err != nil {
		slog.Warn("rejecting malformed gateway event", "aws_request_id", evt.RequestContext.RequestID, "error", err)
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusBadRequest,
			Headers:    map[string]string{"Content-Type": "application/json"},
			Body:       `{"error":"Invalid request"}`,
		}, nil
	}
	slog.Debug("gateway request", "aws_request_id", evt.RequestContext.RequestID, "path", req.URL.Path)

	rw := newResponseBuffer()
	a.handler.ServeHTTP(rw, req)
	return rw.toProxyResponse(), nil
}

func newRequest(ctx context.Context, evt events.APIGatewayProxyRequest) (*http.Request, error) {
	body := []byte(evt.Body)
	if evt.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(evt.Body)
		if err != nil {
			return nil, fmt.Errorf("decoding base64 body: %w", err)
		}
		body = decoded
	}

	path := evt.Path
	if path == "" {
		path = "/"
	}
	u := &url.URL{Path: path}
	if len(evt.MultiValueQueryStringParameters) > 0 {
		u.RawQuery = url.Values(evt.MultiValueQueryStringParameters).Encode()
	}

	method := evt.HTTPMethod
	if method == "" {
		method = http.MethodPost
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	if len(evt.MultiValueHeaders) > 0 {
		for name, values := range evt.MultiValueHeaders {
			for _, v := range values {
				req.Header.Add(name, v)
			}
		}
	} else {
		for name, v := range evt.Headers {
			req.Header.Set(name, v)
		}
	}
	if req.Header.Get("X-Request-ID") == "" && evt.RequestContext.RequestID != "" {
		req.Header.Set("X-Request-ID", evt.RequestContext.RequestID)
	}
	req.RemoteAddr = evt.RequestContext.Identity.SourceIP
	return req, nil
}

type responseBuffer struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newResponseBuffer() *responseBuffer {
	return &responseBuffer{header: make(http.Header)}
}

func (r *responseBuffer) Header() http.Header { return r.header }

func (r *responseBuffer) WriteHeader(status int) {
	if r.status == 0 {
		r.status = status
	}
}

func (r *responseBuffer) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.body.Write(b)
}

func (r *responseBuffer) toProxyResponse() events.APIGatewayProxyResponse {
	status := r.status
	if status == 0 {
		status = http.StatusOK
	}
	headers := make(map[string]string, len(r.header))
	for name, values := range r.header {
		if len(values) > 0 {
			headers[name] = values[len(values)-1]
		}
	}
	return events.APIGatewayProxyResponse{
		StatusCode:        status,
		Headers:           headers,
		MultiValueHeaders: map[string][]string(r.header.Clone()),
		Body:              r.body.String(),
	}
}
