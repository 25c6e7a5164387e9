// Package matching joins media items to edit-index records.
//
// Record keys come from a regex rule applied to one configured CSV column;
// media keys come from a template over the item's name tokens followed by a
// second rule. For each item, in discovery order, batches are scanned in
// order and records in line order; the first non-skipped record with an
// equal key (and, when enabled, a source range contained in the item's
// range) wins. A record may satisfy several items, an item matches at most
// one record.
package matching
