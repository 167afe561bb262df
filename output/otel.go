package output

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"clipsleuth/config"
	"clipsleuth/logger"

	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	otelLog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
)

// otelLogger streams report records to an OTLP logs endpoint. Matched
// excerpts are withheld unless exporting them was explicitly enabled.
type otelLogger struct {
	provider        *sdklog.LoggerProvider
	logger          otelLog.Logger
	timeout         time.Duration
	endpoint        string
	includeExcerpts bool
}

func newOtelLogger(cfg *config.Config) (*otelLogger, error) {
	if cfg == nil {
		return nil, nil
	}
	endpoint := resolveOtelEndpoint(cfg)
	if endpoint == "" {
		return nil, nil
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		return nil, fmt.Errorf("otel endpoint must include scheme (http or https)")
	}

	opts := []otlploghttp.Option{otlploghttp.WithEndpointURL(endpoint)}
	if cfg.OtelTimeout > 0 {
		opts = append(opts, otlploghttp.WithTimeout(cfg.OtelTimeout))
	}

	exp, err := otlploghttp.New(context.Background(), opts...)
	if err != nil {
		return nil, err
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(cfg.OtelServiceName),
	)
	provider := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exp)),
		sdklog.WithResource(res),
	)

	return &otelLogger{
		provider:        provider,
		logger:          provider.Logger("clipsleuth"),
		timeout:         cfg.OtelTimeout,
		endpoint:        endpoint,
		includeExcerpts: cfg.OtelExportExcerpts,
	}, nil
}

func resolveOtelEndpoint(cfg *config.Config) string {
	if endpoint := strings.TrimSpace(cfg.OtelEndpoint); endpoint != "" {
		return endpoint
	}
	if !cfg.OtelFromEnv {
		return ""
	}
	if endpoint := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_LOGS_ENDPOINT")); endpoint != "" {
		return endpoint
	}
	return strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))
}

func (o *otelLogger) Emit(recordType string, payload interface{}) {
	if o == nil || o.logger == nil {
		return
	}
	body := sanitizeRecord(recordType, payloadToMap(payload), o.includeExcerpts)

	var record otelLog.Record
	record.SetTimestamp(time.Now())
	record.SetObservedTimestamp(time.Now())
	record.SetEventName("clipsleuth.record")
	record.AddAttributes(
		otelLog.String("record_type", recordType),
		otelLog.String("schema_version", SchemaVersion),
	)
	record.SetBody(toLogValue(body))

	o.logger.Emit(context.Background(), record)
}

func (o *otelLogger) Shutdown() {
	if o == nil || o.provider == nil {
		return
	}
	timeout := o.timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := o.provider.Shutdown(ctx); err != nil {
		logger.Debugf("OTEL shutdown failed: %v", err)
	}
}

// sanitizeRecord strips content excerpts from exported findings. The
// excerpt is the sensitive value itself; it leaves the host only on
// explicit opt-in.
func sanitizeRecord(recordType string, data map[string]interface{}, includeExcerpts bool) interface{} {
	if data == nil {
		return nil
	}
	if recordType == "finding" && !includeExcerpts {
		sanitized := make(map[string]interface{}, len(data))
		for k, v := range data {
			if k == "matched_text" {
				continue
			}
			sanitized[k] = v
		}
		return sanitized
	}
	return data
}

// payloadToMap round-trips the payload through JSON so records carry
// only what serializes into the report.
func payloadToMap(payload interface{}) map[string]interface{} {
	data, err := jsonMarshal(payload)
	if err != nil {
		return nil
	}
	var decoded map[string]interface{}
	if err := jsonUnmarshal(data, &decoded); err != nil {
		return nil
	}
	return decoded
}

// toLogValue converts JSON-decoded values; only the kinds produced by a
// JSON round trip need handling.
func toLogValue(value interface{}) otelLog.Value {
	switch v := value.(type) {
	case nil:
		return otelLog.Value{}
	case string:
		return otelLog.StringValue(v)
	case bool:
		return otelLog.BoolValue(v)
	case float64:
		return otelLog.Float64Value(v)
	case map[string]interface{}:
		kvs := make([]otelLog.KeyValue, 0, len(v))
		for key, val := range v {
			kvs = append(kvs, otelLog.KeyValue{Key: key, Value: toLogValue(val)})
		}
		return otelLog.MapValue(kvs...)
	case []interface{}:
		values := make([]otelLog.Value, 0, len(v))
		for _, item := range v {
			values = append(values, toLogValue(item))
		}
		return otelLog.SliceValue(values...)
	default:
		return otelLog.StringValue(fmt.Sprintf("%v", v))
	}
}
