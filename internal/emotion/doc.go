// Package emotion talks to the inference backend: multipart recording
// uploads to /predict with retry and backoff, text analysis, the
// emotion-aware chat endpoint and health checks. Failed uploads can be
// preserved to disk so captures survive backend outages.
package emotion
