package consts

// CtxKey is the type used for context value keys across the daemon.
type CtxKey string

const (
	CtxKeyLogID CtxKey = "log_id"
)
