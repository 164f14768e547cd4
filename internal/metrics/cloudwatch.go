package metrics

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

const (
	namespace         = "Stagepost/API"
	cloudwatchTimeout = 5 * time.Second
	queueSize         = 256
)

// putMetricDataAPI is the slice of the CloudWatch client the sink uses
type putMetricDataAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Client ships custom metrics to CloudWatch from a single background sender.
// Each measurement becomes one PutMetricData call; when the queue is full the
// measurement is dropped rather than blocking a request.
type Client struct {
	api         putMetricDataAPI
	environment string
	queue       chan []types.MetricDatum
}

// NewClient creates a CloudWatch metrics client. Only production ships metrics.
func NewClient(ctx context.Context, environment string) (*Client, error) {
	if environment != "production" {
		log.Printf("📊 CloudWatch Metrics: DISABLED (environment: %s)", environment)
		return &Client{environment: environment}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		log.Printf("⚠️  Failed to load AWS config for CloudWatch: %v", err)
		return &Client{environment: environment}, nil
	}

	log.Printf("📊 CloudWatch Metrics: ✅ ENABLED (namespace: %s)", namespace)
	return newClient(ctx, cloudwatch.NewFromConfig(cfg), environment), nil
}

func newClient(ctx context.Context, api putMetricDataAPI, environment string) *Client {
	c := &Client{
		api:         api,
		environment: environment,
		queue:       make(chan []types.MetricDatum, queueSize),
	}
	go c.send(ctx)
	return c
}

// Enabled reports whether metrics are shipped
func (c *Client) Enabled() bool {
	return c.api != nil
}

// RecordAPIRequest counts a request per route and records its latency
func (c *Client) RecordAPIRequest(endpoint string, statusCode int, duration time.Duration) {
	name := "APIRequests"
	if statusCode >= http.StatusInternalServerError {
		name = "APIErrors"
	}
	dims := c.dimensions("Endpoint", endpoint)
	c.enqueue(
		datum(name, 1, types.StandardUnitCount, dims),
		datum("APILatency", float64(duration.Milliseconds()), types.StandardUnitMilliseconds, dims),
	)
}

// RecordGeneration records a model call's duration per kind and, on success,
// its token usage per model
func (c *Client) RecordGeneration(kind, model string, usage TokenUsage, duration time.Duration, success bool) {
	data := []types.MetricDatum{
		datum("GenerationDuration", float64(duration.Milliseconds()), types.StandardUnitMilliseconds,
			append(c.dimensions("Kind", kind), dimension("Success", strconv.FormatBool(success)))),
	}
	if success {
		dims := c.dimensions("Model", model)
		data = append(data,
			datum("LLMTokens/Total", float64(usage.Total), types.StandardUnitCount, dims),
			datum("LLMTokens/Input", float64(usage.Input), types.StandardUnitCount, dims),
			datum("LLMTokens/Output", float64(usage.Output), types.StandardUnitCount, dims),
		)
	}
	c.enqueue(data...)
}

// RecordTurn counts chat turns per mode
func (c *Client) RecordTurn(mode string, success bool) {
	name := "ChatTurns"
	if !success {
		name = "ChatTurnErrors"
	}
	c.enqueue(datum(name, 1, types.StandardUnitCount, c.dimensions("Mode", mode)))
}

// RecordPublish counts publish attempts
func (c *Client) RecordPublish(success bool) {
	c.enqueue(datum("Publishes", 1, types.StandardUnitCount, c.dimensions("Success", strconv.FormatBool(success))))
}

func (c *Client) enqueue(data ...types.MetricDatum) {
	if !c.Enabled() {
		return
	}
	select {
	case c.queue <- data:
	default:
		log.Printf("⚠️  CloudWatch queue full, dropping %s", aws.ToString(data[0].MetricName))
	}
}

func (c *Client) send(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case data := <-c.queue:
			putCtx, cancel := context.WithTimeout(context.Background(), cloudwatchTimeout)
			_, err := c.api.PutMetricData(putCtx, &cloudwatch.PutMetricDataInput{
				Namespace:  aws.String(namespace),
				MetricData: data,
			})
			cancel()
			if err != nil {
				log.Printf("Failed to record %s metric: %v", aws.ToString(data[0].MetricName), err)
			}
		}
	}
}

func (c *Client) dimensions(name, value string) []types.Dimension {
	return []types.Dimension{
		dimension(name, value),
		dimension("Environment", c.environment),
	}
}

func dimension(name, value string) types.Dimension {
	return types.Dimension{Name: aws.String(name), Value: aws.String(value)}
}

func datum(name string, value float64, unit types.StandardUnit, dims []types.Dimension) types.MetricDatum {
	return types.MetricDatum{
		MetricName: aws.String(name),
		Value:      aws.Float64(value),
		Unit:       unit,
		Timestamp:  aws.Time(time.Now()),
		Dimensions: dims,
	}
}
