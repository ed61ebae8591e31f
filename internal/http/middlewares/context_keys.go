package middlewares

const (
	CtxRequestID = "request_id"
	CtxActor     = "auth.actor"
)
