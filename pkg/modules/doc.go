// Package modules provides the built-in extension modules for the
// reconciliation engine.
//
// Each module owns one facet of element data and applies it to the real
// node through ElementOps:
//
//   - Attrs: Data.Attrs as attributes (boolean attributes present or absent)
//   - Class: Data.StaticClass merged with the dynamic Data.Class value
//   - Style: Data.Style properties
//   - Events: Data.On listeners, swapped in place without re-binding
//   - Refs: Data.Ref registration per owning component
//   - Directives: Data.Directives lifecycle callbacks
//
// Default returns them in the order the engine must run them, with
// Directives last so directive callbacks observe the element with all
// other data already applied.
package modules
