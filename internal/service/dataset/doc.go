// Package dataset downloads CSV resources from the open-data API into local
// folders and renders downloaded files as tables.
package dataset
