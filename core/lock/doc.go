// Package lock provides the optional single-instance run lock.
//
// Overlapping scheduled invocations could both find an order missing and
// create it twice. When enabled, each pass first takes a redis SET NX lock
// with a TTL; an invocation that cannot get it skips the pass. This does not
// close the create race against other writers of the same CRM connection.
package lock
