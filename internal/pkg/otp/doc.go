// Package otp issues short numeric one-time codes for email verification.
//
// Codes are HOTP values (RFC 4226) computed over a throwaway random secret and
// counter, which gives a uniformly distributed, fixed-width digit string.
// Canonical turns a submitted code into the integer form used for comparison.
package otp
