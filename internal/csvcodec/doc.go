// Package csvcodec converts between larder CSV blocks and types.Graph.
//
// Two block kinds exist. A template block starts with a lone
// "template name" header and holds pairs of rows: a name row
// (name,field1,field2,...) followed by a type row (,type1,type2,...). An item
// block starts with "item name,template,description" (optionally followed by
// "image") and then the dynamic field columns; its data rows describe an item
// forest in pre-order, where a lone ">" opens the children of the previous
// item and a lone "<" closes the current nesting level.
//
// The dialect is plain comma-separated text. There is no quoting or
// escaping: a comma inside a value is a column separator.
//
// # Thread Safety
//
// Every function in this package is pure. Decoders and encoders keep no
// shared mutable state, so concurrent calls never interfere.
package csvcodec
