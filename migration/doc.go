/*
Package migration provides tooling necessary for working with schema versioned
models.

Every persisted model carries a harvest.Metadata as its first attribute. The
schema version is declared per package, not per model, so each upgrade must
provide a migration function for all models of that package. Use
NoModification for models that require no change:

	func init() {
		migration.MustRegister(1, &Vault{}, migration.NoModification)
	}

Buckets wrapped with NewModelBucket migrate models on the fly, both when
reading and when writing. Packages are initialized with MustInitPkg, usually
from their genesis initializer.

The second concern of this package is the layout of the persisted records.
Records are encoded using protobuf field numbers. A record may gain new
fields, but the numbers of existing fields must never move. MustRegisterLayout
declares the evolution rule of a model and CheckLayout verifies a model
against the layout it was frozen with:

  - Reserve(n) is used by flat records. The record declares a fixed block
    of n trailing field numbers that new fields are taken from, so the
    total capacity of the record never changes.
  - AppendOnly() is used by records holding a nested repeated collection.
    New top level fields may only be appended after the existing ones.
*/
package migration
