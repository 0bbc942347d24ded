// Package batch defines the contract of the batch-process host: a process is
// selected by name, its inputs are set by position, it is run, and its outputs
// are committed to the host database and fetched by id. It also provides the
// positional call builder and output reader used by the adaptor.
package batch
