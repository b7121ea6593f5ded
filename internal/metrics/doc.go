// Package metrics records build and stage metrics for slidebuilder.
//
// Components receive a Recorder through dependency injection and default to NoopRecorder,
// so no call site needs a nil check:
//
//	b := pipeline.NewBuilder(cfg, builder) // recorder: metrics.NoopRecorder{}
//	b.WithRecorder(metrics.NewPrometheusRecorder(nil))
//
// slidebuilder is a one-shot CLI, so there is no scrape endpoint. PrometheusRecorder keeps
// its own registry and WriteTextfile dumps it in the text exposition format for the
// node_exporter textfile collector.
package metrics
