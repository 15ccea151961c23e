// Package staging owns the transient working directories used by the upload
// server and the directory lock that keeps two reconciliation runs out of the
// same folder.
//
// Each workspace is a uuid-named directory under the configured staging_dir,
// guarded by a flock on a lock file inside it. A locked workspace is in use;
// an unlocked one is waiting for its archive to be downloaded and may be swept
// by CleanStale once it is older than the configured age.
package staging
