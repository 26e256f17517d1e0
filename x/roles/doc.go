/*
Package roles implements the capability oracle consulted by every
privileged operation.

A single query, HasRole, answers whether an address holds a role. The
oracle is an interface so that any backing implementation can be used.
StaticOracle keeps the grants in memory, StoreOracle reads grants that were
written to the store by the genesis initializer. Administration of roles
after genesis is not provided.
*/
package roles
