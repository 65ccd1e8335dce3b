// Package circulation defines the core data model and the narrow storage
// contracts of the library circulation engine: the catalog and directory
// entities, the append-only issue and return ledgers, the error taxonomy
// shared by all storage engines, and the dependency-free observability
// interfaces.
//
// The package itself carries no storage implementation. Concrete engines
// live in the postgresengine, sqliteengine and memoryengine subpackages and
// are interchangeable behind the contracts defined here.
package circulation
