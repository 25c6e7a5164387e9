// Package failure defines the error markers shared by every pipeline phase.
//
// Phases wrap their failures with one of the exported sentinels through Wrap
// so the CLI can classify an aborted run (bad configuration, missing input,
// empty match precondition, probe failures) with errors.Is instead of string
// matching. Rule problems (malformed regex patterns) are not returned as errors;
// they are logged and the owning rule becomes a no-op. ErrRule exists so those
// log lines and the tokens.Result type can still carry a comparable cause.
package failure
