// Package capture records microphone audio in explicit user-bounded
// sessions. It wraps the miniaudio capture backend and drives a recorder
// state machine that guarantees single-session exclusivity, exactly-once
// finalization, and unconditional device release on every path.
package capture
