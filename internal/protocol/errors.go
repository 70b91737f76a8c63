package protocol

// ErrorCode is the canonical closed set of wire error codes. Every rejected
// command is answered with exactly one ERROR event carrying one of these.
type ErrorCode string

const (
	ErrBadRequest          ErrorCode = "BAD_REQUEST"
	ErrUnauthorized        ErrorCode = "UNAUTHORIZED"
	ErrForbidden           ErrorCode = "FORBIDDEN"
	ErrRoomNotFound        ErrorCode = "ROOM_NOT_FOUND"
	ErrRoomFull            ErrorCode = "ROOM_FULL"
	ErrUsernameTaken       ErrorCode = "USERNAME_TAKEN"
	ErrMatchAlreadyStarted ErrorCode = "MATCH_ALREADY_STARTED"
	ErrMatchNotStarted     ErrorCode = "MATCH_NOT_STARTED"
	ErrPlayerEliminated    ErrorCode = "PLAYER_ELIMINATED"
	ErrInsufficientScore   ErrorCode = "INSUFFICIENT_SCORE"
	ErrItemOnCooldown      ErrorCode = "ITEM_ON_COOLDOWN"
	ErrRateLimited         ErrorCode = "RATE_LIMITED"
	ErrPayloadTooLarge     ErrorCode = "PAYLOAD_TOO_LARGE"
	ErrJudgeUnavailable    ErrorCode = "JUDGE_UNAVAILABLE"
	ErrInternal            ErrorCode = "INTERNAL_ERROR"
)

// ErrorPayload is the payload of an ERROR event.
type ErrorPayload struct {
	Code         ErrorCode `json:"code"`
	Message      string    `json:"message"`
	RetryAfterMs int64     `json:"retryAfterMs,omitempty"`
}

// HTTPStatus maps a wire error code onto the status used by the gateway's
// HTTP side channel.
func (c ErrorCode) HTTPStatus() int {
	switch c {
	case ErrRoomNotFound:
		return 404
	case ErrBadRequest, ErrPayloadTooLarge:
		return 400
	case ErrUnauthorized:
		return 401
	case ErrForbidden:
		return 403
	case ErrUsernameTaken, ErrRoomFull, ErrMatchAlreadyStarted:
		return 409
	case ErrRateLimited:
		return 429
	default:
		return 500
	}
}
