// Package storage uploads scan artifacts to S3-compatible object storage.
//
// The Store is used by the upload step of the output pipeline. Reports and
// screenshots are written locally first and then copied to the bucket under
// <prefix>/<run id>/<file name>, so a failed upload never loses a report.
package storage
