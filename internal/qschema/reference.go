package qschema

// TableReference is an immutable pair {referencing-column,
// referenced-column} plus the pair of tables it links. A reference is
// authoritative only when both columns belong to distinct tables whose
// primary key / foreign key declarations the server confirms — the
// production TableReferenceReader only ever constructs references it
// read back from information_schema.key_column_usage, so that
// guarantee holds by construction rather than being re-checked here.
type TableReference struct {
	ReferencingTable  *Table
	ReferencingColumn *Column
	ReferencedTable   *Table
	ReferencedColumn  *Column
}
