// Package tokens implements the template-then-regex primitive every
// reconciliation rule is built from.
//
// A Rule fills {name} placeholders in its template from a Map, then either
// performs a global regex substitution (when a replacement is configured) or
// returns capture group 1 of the first match. Placeholders without a value
// stay in the output literally. Rules are compiled once; a malformed pattern
// or replacement makes the rule a no-op and is reported through Result.Status
// and Compiled.Err so callers can warn once per rule instead of per record.
//
// Replacements accept both Go expansion syntax ($1, ${name}) and the
// backslash forms common in existing configuration files (\1, \g<1>,
// \g<name>).
package tokens
