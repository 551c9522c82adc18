package middlewares

// Gin context keys. Handlers read identity through the helpers below, never
// through these directly.
const (
	CtxRequestID = "ctx.requestID"

	ctxUserIDKey = "auth.userID"
	ctxEmailKey  = "auth.email"
	ctxRoleKey   = "auth.role"
)
