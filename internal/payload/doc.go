// Package payload turns raw source into a self-reporting unit and runs it.
//
// A wrapped payload is a single call expression, __lch_run("<envelope>"),
// where the envelope is base64-encoded JSON carrying the source and where to
// report its outcome. The expression contains no quotes or newlines of its
// own, so it survives being embedded in a JSON message field.
//
// When the host executes the expression, its __lch_run builtin decodes the
// envelope and hands it to a Runner. The Runner executes the source with
// output captured, substitutes a traceback on failure, and sends exactly one
// report to the gateway's result route.
package payload
