/*
Package orm provides an easy to use db wrapper.

A ModelBucket stores models of a single type under a name prefix. Keys are
either provided by the caller or generated from a Sequence. Ordered range
and prefix scans are supported by the underlying KVStore iterators, which
makes composite keys (see CompositeKey) the tool of choice to keep related
records, for example all snapshots of a single stake, next to each other.
*/
package orm
