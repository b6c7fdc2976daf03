// Package snapshot uploads rendered documents to S3.
//
// The serve command uses it to archive the mirrored HTML after each
// frame, and the render command to publish its output:
//
//	client, err := snapshot.NewClient(ctx, cfg.Snapshot)
//	up := snapshot.NewUploader(client, cfg.Snapshot.Bucket, snapshot.WithPrefix(cfg.Snapshot.Prefix))
//	key, err := up.Upload(ctx, "frame-3", doc)
//
// Keys have the form <prefix><name>/<timestamp>.html.
package snapshot
