// Package instrumentation provides OpenTelemetry instrumentation for daytasks.
//
// daytasks runs once and exits, so metrics are not scraped from a long-lived
// endpoint. Instead the provider flushes everything on Shutdown:
//   - textfile: Prometheus text exposition written to a file, for the
//     node_exporter textfile collector
//   - otlp: pushed to an OTLP/HTTP collector
//   - stdout: printed for local debugging
//
// # Metrics
//
// Google API Metrics:
//   - google_api_operations_total: Counter of Google API operations by service, operation, status
//   - google_api_operation_duration_seconds: Histogram of Google API operation durations
//
// OAuth Metrics:
//   - oauth_auth_total: Counter of interactive logins by scope and result
//   - oauth_token_refresh_total: Counter of token refresh attempts by scope and result
//
// Sync Metrics:
//   - sync_runs_total: Counter of pipeline runs by status
//   - sync_events_total: Counter of fetched events by kind (fetched, all_day)
//   - sync_tasks_created_total: Counter of inserted tasks
//
// # Tracing
//
// Spans are created for each pipeline stage (sync.<stage>) and for each
// Google API call (google.<service>.<operation>).
//
// # Configuration
//
// Instrumentation is configured via environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: false)
//   - METRICS_EXPORTER: textfile, otlp, stdout or none (default: textfile)
//   - METRICS_TEXTFILE_PATH: Destination of the textfile exporter
//   - TRACING_EXPORTER: otlp, stdout or none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 1.0)
//   - OTEL_SERVICE_NAME: Service name (default: daytasks)
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	provider.Metrics().RecordGoogleAPIOperation(ctx, instrumentation.ServiceTasks,
//		instrumentation.OperationCreate, instrumentation.StatusSuccess, time.Since(start))
package instrumentation
