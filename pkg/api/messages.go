package api

type (
	// NormalizeResponse is returned after a plan document round trip
	NormalizeResponse struct {
		Document *Document `json:"document"`
		Version  string    `json:"version,omitempty"`
	}

	// PlanListResponse lists the names of stored plans
	PlanListResponse struct {
		Plans []string `json:"plans"`
		Count int      `json:"count"`
	}

	// BlocksResponse lists the registered block types and their actions
	BlocksResponse struct {
		Blocks map[string][]string `json:"blocks"`
	}

	// HealthResponse provides service health information
	HealthResponse struct {
		Service string `json:"service"`
		Version string `json:"version"`
		Status  string `json:"status"`
	}

	// ErrorResponse contains error details for failed requests. When the
	// failure came from a block, its identity and extra metadata are echoed
	ErrorResponse struct {
		Error  string `json:"error"`
		Status int    `json:"status,omitempty"`
		Type   string `json:"type,omitempty"`
		Action string `json:"action,omitempty"`
		Extra  Extra  `json:"extra,omitempty"`
	}

	// ExecutionEvent reports a plan execution lifecycle change to
	// subscribers of the event stream
	ExecutionEvent struct {
		Data        any         `json:"data,omitempty"`
		Type        EventType   `json:"type"`
		PlanID      PlanID      `json:"plan_id,omitempty"`
		ExecutionID ExecutionID `json:"execution_id"`
		Timestamp   int64       `json:"timestamp"`
	}

	// EventType names an execution lifecycle event
	EventType string

	// SubscribeRequest is sent by event stream clients to filter events
	SubscribeRequest struct {
		Type   string      `json:"type"`
		PlanID PlanID      `json:"plan_id,omitempty"`
		Events []EventType `json:"events,omitempty"`
	}

	// SubscribedResult acknowledges a subscription on the event stream
	SubscribedResult struct {
		Type   string      `json:"type"`
		PlanID PlanID      `json:"plan_id,omitempty"`
		Events []EventType `json:"events,omitempty"`
	}
)

const (
	EventTypeExecutionStarted  EventType = "execution_started"
	EventTypeExecutionFinished EventType = "execution_finished"
	EventTypeExecutionFailed   EventType = "execution_failed"
	EventTypeBreakpointHit     EventType = "breakpoint_hit"
)

// Headers carrying execution metadata, set by the gateway in front of the
// server
const (
	HeaderAccountID     = "X-Account-Id"
	HeaderAccountName   = "X-Account-Name"
	HeaderTransactionID = "X-Transaction-Id"
	HeaderAccessRoles   = "X-Access-Roles"
)
