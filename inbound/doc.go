// Package inbound runs verified webhook deliveries through a claim store
// keyed by message id, so Kick's redeliveries of a processed message are
// acknowledged without running handlers twice while failures stay retryable.
package inbound
