// Package events publishes committed reconciliation outcomes to kafka.
//
// The Publisher is registered on the engine as a reconcile.Listener. It runs
// only after the outcome is persisted, and a publish failure is logged by the
// engine without touching the record's status.
package events
