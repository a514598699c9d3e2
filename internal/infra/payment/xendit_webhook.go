package payment

import "crypto/subtle"

// VerifyCallbackToken checks the x-callback-token header Xendit sends
// with every webhook. Constant-time compare; an empty configured token
// rejects everything rather than accepting everything.
func VerifyCallbackToken(expected, got string) bool {
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(got)) == 1
}
