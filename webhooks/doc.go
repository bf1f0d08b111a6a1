// Package webhooks receives Kick event deliveries over HTTP.
//
// A delivery is signed with RSA PKCS#1 v1.5 over SHA-256 of
// "<message id>.<timestamp>.<raw body>". Verification starts from the
// bootstrap key and refetches the platform key once per mismatch, so a key
// rotation costs one extra request instead of rejecting every delivery.
package webhooks
