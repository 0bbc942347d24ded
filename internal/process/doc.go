// Package process defines the interface every host process implements,
// along with the invocation and result types exchanged between the engine
// and process implementations, and the registry resolving processes by name.
package process
