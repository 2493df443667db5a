// Package otpflow is the caller side of the OTP verification flow.
//
// A Flow sends a code once when started, collects the six digits the user
// types, submits them for verification and keeps the resend countdown. It is
// headless: a UI or CLI renders Snapshot and forwards user actions.
package otpflow
