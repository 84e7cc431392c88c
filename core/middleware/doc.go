// Package middleware groups the Fiber middleware used by the status server
// that watch mode starts.
//
// # Components
//
//   - auth: rejects requests without the configured X-API-Key header.
//     Listed paths such as /health are served without a key.
//   - rayid: assigns every request a Ray ID. The ID is stored in the
//     request locals for logger.WithRayID and echoed in the X-Ray-ID
//     response header.
//
// Register rayid first so every later log line carries the ID.
package middleware
