// Package integration defines the contracts of the external integration hub:
// the uniform connector interfaces implemented by every courier and
// marketplace adapter, the normalized data shapes all provider payloads are
// translated into, the registry that maps provider codes to connector
// factories, and the pure pricing and order-merge functions used by the sync
// pipeline.
//
// Concrete connectors live in the infrastructure layer (Ports & Adapters);
// this package never performs I/O.
package integration
