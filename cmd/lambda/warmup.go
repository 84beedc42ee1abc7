package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	lambdasdk "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
)

const (
	// WarmupSource identifies warmup events from the scheduler
	WarmupSource = "warmup"

	// WarmupDelay keeps instances alive long enough to overlap
	WarmupDelay = 75 * time.Millisecond
)

type WarmupEvent struct {
	Source      string `json:"source"`
	Concurrency int    `json:"concurrency"`
}

type WarmupResponse struct {
	Status          string `json:"status"`
	InstancesWarmed int    `json:"instancesWarmed"`
	ModelLoaded     bool   `json:"modelLoaded"`
}

type invoker interface {
	Invoke(ctx context.Context, params *lambdasdk.InvokeInput, optFns ...func(*lambdasdk.Options)) (*lambdasdk.InvokeOutput, error)
}

func newLambdaInvoker(ctx context.Context) (invoker, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	return lambdasdk.NewFromConfig(cfg), nil
}

func IsWarmupEvent(event json.RawMessage) (*WarmupEvent, bool) {
	var eventMap map[string]interface{}
	if err := json.Unmarshal(event, &eventMap); err != nil {
		return nil, false
	}

	source, ok := eventMap["source"].(string)
	if !ok || source != WarmupSource {
		return nil, false
	}

	warmup := &WarmupEvent{Source: source}
	if concurrency, ok := eventMap["concurrency"].(float64); ok {
		warmup.Concurrency = int(concurrency)
	}
	return warmup, true
}

// HandleWarmup loads the model on this instance and, when asked, invokes
// the function again to warm more instances.
func (f *function) HandleWarmup(ctx context.Context, warmup *WarmupEvent) (interface{}, error) {
	loaded := true
	if err := f.handler.Warm(ctx); err != nil {
		slog.Warn("Warmup could not load model", "error", err)
		loaded = false
	}

	instancesWarmed := 1
	if warmup.Concurrency > 0 {
		if err := f.selfInvoke(ctx, warmup.Concurrency); err != nil {
			slog.Warn("Warmup self-invoke failed", "error", err)
		} else {
			instancesWarmed += warmup.Concurrency
		}
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(WarmupDelay):
	}

	return map[string]interface{}{
		"statusCode": 200,
		"body": WarmupResponse{
			Status:          "warm",
			InstancesWarmed: instancesWarmed,
			ModelLoaded:     loaded,
		},
	}, nil
}

func (f *function) selfInvoke(ctx context.Context, count int) error {
	client, err := f.invoker(ctx)
	if err != nil {
		return err
	}

	functionName := os.Getenv("AWS_LAMBDA_FUNCTION_NAME")

	// children get concurrency 0 so they do not fan out again
	payload, err := json.Marshal(WarmupEvent{Source: WarmupSource})
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	var invokeErr error
	var errMu sync.Mutex

	for i := 0; i < count; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := client.Invoke(ctx, &lambdasdk.InvokeInput{
				FunctionName:   aws.String(functionName),
				InvocationType: types.InvocationTypeEvent,
				Payload:        payload,
			})
			if err != nil {
				errMu.Lock()
				if invokeErr == nil {
					invokeErr = err
				}
				errMu.Unlock()
			}
		}()
	}

	wg.Wait()
	return invokeErr
}
