// Package metrics holds the Prometheus collectors shared by the message
// pipelines and the development directory.
package metrics
