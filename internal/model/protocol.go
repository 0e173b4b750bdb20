package model

// Gateway route paths.
const (
	RouteHealth    = "/health"
	RouteCall      = "/lch_call"
	RouteSetResult = "/lch_set_ret"
	RouteGetResult = "/lch_get_ret"
	RouteMetrics   = "/metrics"
)

// Response status values.
const (
	StatusOK       = "ok"
	StatusError    = "error"
	StatusNoResult = "no_result"
)

// Required JSON keys of the two POST routes.
const (
	FieldMessage = "message"
	FieldResult  = "result"
)

// CallRequest is the JSON body for POST /lch_call.
type CallRequest struct {
	Message string `json:"message"`
}

// SetResultRequest is the JSON body for POST /lch_set_ret.
type SetResultRequest struct {
	Result string `json:"result"`
}

// Response is the JSON body of every gateway reply except /health.
// Result is a pointer so that an empty result is still serialized when present.
type Response struct {
	Status string  `json:"status"`
	Result *string `json:"result,omitempty"`
	Error  string  `json:"error,omitempty"`
}
