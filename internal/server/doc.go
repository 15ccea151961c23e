// Package server implements the HTTP upload service.
//
// A client posts a mapping spreadsheet and a set of documents to /upload. The
// server stores them in a fresh staging workspace, runs the reconciliation
// there and answers with the archive location and the diagnostic lines. The
// archive is fetched from /download/<workspace>/<archive>; a completed
// download deletes the workspace. Workspaces that are never downloaded are
// removed by a periodic sweep once they exceed server.workspace_max_age_minutes.
package server
