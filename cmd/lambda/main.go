// Package main serves the translation API from AWS Lambda behind an API
// Gateway HTTP API.
package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/nguyenvanduocit/indictrans/pkg/api"
	"github.com/nguyenvanduocit/indictrans/pkg/config"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	cfg, err := config.Load(os.Getenv("INDICTRANS_CONFIG"))
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	app, err := api.Build(context.Background(), cfg, nil, slog.Default())
	if err != nil {
		slog.Error("failed to build service", "error", err)
		os.Exit(1)
	}

	fn := &function{handler: app.Handler, invoker: newLambdaInvoker}
	lambda.StartWithOptions(fn.handleRequest, lambda.WithEnableSIGTERM(func() {
		if err := app.Close(); err != nil {
			slog.Warn("failed to close service", "error", err)
		}
	}))
}

type function struct {
	handler *api.Handler
	invoker func(ctx context.Context) (invoker, error)
}

func (f *function) handleRequest(ctx context.Context, event json.RawMessage) (interface{}, error) {
	// Warmup detection comes before anything else.
	if warmup, ok := IsWarmupEvent(event); ok {
		return f.HandleWarmup(ctx, warmup)
	}

	var req events.APIGatewayV2HTTPRequest
	if err := json.Unmarshal(event, &req); err != nil {
		return nil, err
	}
	return f.route(ctx, req), nil
}

func (f *function) route(ctx context.Context, req events.APIGatewayV2HTTPRequest) events.APIGatewayV2HTTPResponse {
	method := req.RequestContext.HTTP.Method
	path := strings.TrimSuffix(req.RawPath, "/")

	var (
		env api.Envelope
		err error
	)
	switch {
	case method == http.MethodPost && path == "/api/translate":
		var body api.TranslateRequest
		raw, decodeErr := requestBody(req)
		if decodeErr == nil && len(strings.TrimSpace(raw)) > 0 {
			decodeErr = json.Unmarshal([]byte(raw), &body)
		}
		if decodeErr != nil {
			return respond(http.StatusBadRequest, api.Envelope{"success": false, "error": "Invalid request body"})
		}
		env, err = f.handler.Translate(ctx, body)
		if err == nil && !env.Success() {
			return respond(http.StatusBadRequest, env)
		}
	case method == http.MethodGet && path == "/api/languages":
		env, err = f.handler.Languages()
	case method == http.MethodGet && path == "/api/status":
		env, err = f.handler.Status()
	default:
		return respond(http.StatusNotFound, api.Envelope{"success": false, "error": "Cannot " + method + " " + req.RawPath})
	}

	if err != nil {
		slog.Error("Request failed", "method", method, "path", path, "error", err)
		return respond(http.StatusInternalServerError, api.FaultEnvelope(err))
	}
	return respond(http.StatusOK, env)
}

func requestBody(req events.APIGatewayV2HTTPRequest) (string, error) {
	if !req.IsBase64Encoded {
		return req.Body, nil
	}
	b, err := base64.StdEncoding.DecodeString(req.Body)
	return string(b), err
}

func respond(status int, env api.Envelope) events.APIGatewayV2HTTPResponse {
	body, err := json.Marshal(env)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"success":false,"error":"failed to encode response"}`)
	}
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}
}
