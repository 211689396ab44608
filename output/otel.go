package output

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"carbonlint/carbon"
	"carbonlint/config"
	"carbonlint/logger"
	"carbonlint/scanner"

	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	otelLog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
)

const (
	recordScan      = "scan"
	recordBreakdown = "breakdown"
	recordWarning   = "warning"
)

// Exporter ships scan results to an OTLP/HTTP logs endpoint. A nil
// *Exporter is valid and discards everything.
type Exporter struct {
	provider *sdklog.LoggerProvider
	logger   otelLog.Logger
	timeout  time.Duration
	endpoint string
	policy   otelPolicy
}

type otelPolicy struct {
	includePaths bool
}

type otelRecord struct {
	recordType string
	payload    map[string]interface{}
}

// NewExporter returns nil, nil when no endpoint is configured.
func NewExporter(cfg *config.Config) (*Exporter, error) {
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
	if len(cfg.OtelHeaders) > 0 {
		opts = append(opts, otlploghttp.WithHeaders(cfg.OtelHeaders))
	}
	if cfg.OtelTimeout > 0 {
		opts = append(opts, otlploghttp.WithTimeout(cfg.OtelTimeout))
	}

	exp, err := otlploghttp.New(context.Background(), opts...)
	if err != nil {
		return nil, err
	}

	serviceName := cfg.OtelServiceName
	if serviceName == "" {
		serviceName = "carbonlint"
	}
	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(serviceName),
	)
	provider := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exp)),
		sdklog.WithResource(res),
	)

	return &Exporter{
		provider: provider,
		logger:   provider.Logger("carbonlint"),
		timeout:  cfg.OtelTimeout,
		endpoint: endpoint,
		policy:   otelPolicy{includePaths: cfg.OtelExportPaths},
	}, nil
}

func resolveOtelEndpoint(cfg *config.Config) string {
	if cfg == nil {
		return ""
	}
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

func (e *Exporter) Endpoint() string {
	if e == nil {
		return ""
	}
	return e.endpoint
}

// ExportResult emits one scan record, then one record per breakdown row and
// one per warning.
func (e *Exporter) ExportResult(ctx context.Context, res *scanner.Result) {
	if e == nil || e.logger == nil || res == nil {
		return
	}
	for _, rec := range resultRecords(res, e.policy) {
		e.emit(ctx, rec)
	}
}

func (e *Exporter) emit(ctx context.Context, rec otelRecord) {
	now := time.Now()
	var record otelLog.Record
	record.SetTimestamp(now)
	record.SetObservedTimestamp(now)
	record.SetEventName("carbonlint." + rec.recordType)
	record.SetSeverity(otelLog.SeverityInfo)
	if rec.recordType == recordWarning {
		record.SetSeverity(otelLog.SeverityWarn)
	}
	record.AddAttributes(
		otelLog.String("record_type", rec.recordType),
		otelLog.String("schema_version", SchemaVersion),
	)
	if attrs := semanticAttributes(rec, e.policy); len(attrs) > 0 {
		record.AddAttributes(attrs...)
	}
	record.SetBody(toLogValue(rec.payload))
	e.logger.Emit(ctx, record)
}

func (e *Exporter) Shutdown() {
	if e == nil || e.provider == nil {
		return
	}
	timeout := e.timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := e.provider.Shutdown(ctx); err != nil {
		logger.Debugf("OTEL shutdown failed: %v", err)
	}
}

func resultRecords(res *scanner.Result, policy otelPolicy) []otelRecord {
	records := make([]otelRecord, 0, 1+len(res.Breakdown)+len(res.Warnings))

	scan := map[string]interface{}{
		"files":            res.TotalFiles,
		"size_bytes":       res.TotalSize,
		"weight":           res.TotalWeight,
		"energy_kwh":       res.EnergyKWh,
		"carbon_grams":     res.CarbonGrams,
		"green_score":      res.GreenScore,
		"label":            carbon.Label(res.GreenScore),
		"region":           res.Region.Key,
		"region_intensity": res.Region.Intensity,
		"pue":              res.PUE,
		"budget_grams":     res.Budget,
		"over_budget":      res.OverBudget,
		"hardware_profile": res.HardwareProfile,
		"fingerprint":      res.Fingerprint,
		"skipped":          res.SkippedEntries,
		"duration_ms":      res.Duration.Milliseconds(),
	}
	if policy.includePaths {
		scan["root"] = res.Root
	}
	records = append(records, otelRecord{recordType: recordScan, payload: scan})

	for _, stat := range res.Breakdown {
		records = append(records, otelRecord{recordType: recordBreakdown, payload: map[string]interface{}{
			"ext":    stat.Ext,
			"count":  stat.Count,
			"size":   stat.Size,
			"weight": stat.Weight,
		}})
	}

	for _, w := range res.Warnings {
		payload := map[string]interface{}{
			"type": w.Type,
			"size": w.Size,
		}
		if w.MIME != "" {
			payload["mime_type"] = w.MIME
		}
		// The message embeds the path.
		if policy.includePaths {
			payload["file"] = w.File
			payload["message"] = w.Message
		}
		records = append(records, otelRecord{recordType: recordWarning, payload: payload})
	}
	return records
}

func semanticAttributes(rec otelRecord, policy otelPolicy) []otelLog.KeyValue {
	data := rec.payload
	var kvs []otelLog.KeyValue
	switch rec.recordType {
	case recordScan:
		kvs = appendInt64Attr(kvs, "carbonlint.scan.files", data["files"])
		kvs = appendInt64Attr(kvs, "carbonlint.scan.green_score", data["green_score"])
		kvs = appendFloat64Attr(kvs, "carbonlint.scan.carbon_grams", data["carbon_grams"])
		kvs = appendFloat64Attr(kvs, "carbonlint.scan.energy_kwh", data["energy_kwh"])
		kvs = appendStringAttr(kvs, "carbonlint.scan.region", data["region"])
		if over, ok := data["over_budget"].(bool); ok {
			kvs = append(kvs, otelLog.Bool("carbonlint.scan.over_budget", over))
		}
		if policy.includePaths {
			kvs = appendStringAttr(kvs, string(semconv.FileDirectoryKey), data["root"])
		}
	case recordBreakdown:
		if ext, ok := data["ext"].(string); ok && ext != "" {
			kvs = append(kvs, otelLog.String(string(semconv.FileExtensionKey), strings.TrimPrefix(ext, ".")))
		}
		kvs = appendInt64Attr(kvs, "carbonlint.breakdown.count", data["count"])
	case recordWarning:
		kvs = appendStringAttr(kvs, "carbonlint.warning.type", data["type"])
		kvs = appendInt64Attr(kvs, string(semconv.FileSizeKey), data["size"])
		if policy.includePaths {
			kvs = appendStringAttr(kvs, string(semconv.FilePathKey), data["file"])
		}
	}
	return kvs
}

func toLogValue(value interface{}) otelLog.Value {
	switch v := value.(type) {
	case nil:
		return otelLog.Value{}
	case string:
		return otelLog.StringValue(v)
	case bool:
		return otelLog.BoolValue(v)
	case int:
		return otelLog.IntValue(v)
	case int64:
		return otelLog.Int64Value(v)
	case float64:
		return otelLog.Float64Value(v)
	case map[string]interface{}:
		kvs := make([]otelLog.KeyValue, 0, len(v))
		for key, item := range v {
			kvs = append(kvs, otelLog.KeyValue{Key: key, Value: toLogValue(item)})
		}
		return otelLog.MapValue(kvs...)
	case []string:
		values := make([]otelLog.Value, 0, len(v))
		for _, item := range v {
			values = append(values, otelLog.StringValue(item))
		}
		return otelLog.SliceValue(values...)
	default:
		return otelLog.StringValue(fmt.Sprint(v))
	}
}

func appendStringAttr(kvs []otelLog.KeyValue, key string, value interface{}) []otelLog.KeyValue {
	s, ok := value.(string)
	if !ok || s == "" {
		return kvs
	}
	return append(kvs, otelLog.String(key, s))
}

func appendInt64Attr(kvs []otelLog.KeyValue, key string, value interface{}) []otelLog.KeyValue {
	switch v := value.(type) {
	case int:
		return append(kvs, otelLog.Int64(key, int64(v)))
	case int64:
		return append(kvs, otelLog.Int64(key, v))
	}
	return kvs
}

func appendFloat64Attr(kvs []otelLog.KeyValue, key string, value interface{}) []otelLog.KeyValue {
	if v, ok := value.(float64); ok {
		return append(kvs, otelLog.Float64(key, v))
	}
	return kvs
}
