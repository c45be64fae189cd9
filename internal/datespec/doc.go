// Package datespec validates the human-entered cut-off date for an archive run.
//
// Input has the fixed shape "<day> <month-name> <year>", for example "2 августа 2025".
// Month names come from an injected Vocabulary so another calendar spelling can be
// substituted through configuration. Validation is pure: malformed input yields a
// *RejectError wrapping one of the sentinel kinds, never a panic.
package datespec
