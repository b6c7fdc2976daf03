// Package observe provides reconcile.Observer implementations that
// export patch activity.
//
// Metrics records Prometheus counters and a duration histogram per
// patch; Tracer wraps every patch in an OpenTelemetry span. Combine
// several observers with Multi:
//
//	reg := prometheus.NewRegistry()
//	engine := reconcile.New(ops, mods, reconcile.WithObserver(observe.Multi(
//	    observe.NewMetrics(observe.WithRegistry(reg)),
//	    observe.NewTracer(),
//	)))
//
// Metrics collected (namespace "patchwork" by default):
//   - patchwork_patches_total: patches by outcome ("ok" or "aborted")
//   - patchwork_patch_duration_seconds: patch duration histogram
//   - patchwork_nodes_created_total: real nodes created
//   - patchwork_nodes_removed_total: real nodes removed
//   - patchwork_nodes_moved_total: real nodes moved by the keyed diff
//   - patchwork_text_updates_total: text content updates
//   - patchwork_vnodes_patched_total: vnodes patched in place
//   - patchwork_live_clients: connected live clients
//   - patchwork_live_frames_sent_total: frames written to live clients
//   - patchwork_live_bytes_sent_total: bytes written to live clients
package observe
