package response

import "errors"

type Response struct {
	ResponseError `json:"error,omitzero"`
}

type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

//Error Codes
type ErrCode string

var (
	FAILED_REQUEST     ErrCode = "REQUEST_FAILED"
	BAD_REQUEST        ErrCode = "FAILED_TO_DECODE"
	VALIDATION_FAILED  ErrCode = "VALIDATION_FAILED"
	NOT_FOUND          ErrCode = "NOT_FOUND"
	LOCKED             ErrCode = "LOCKED"
	CONFLICT           ErrCode = "CONFLICT"
	SLOT_NOT_AVAILABLE ErrCode = "SLOT_NOT_AVAILABLE"
	SLOT_IN_PAST       ErrCode = "SLOT_IN_PAST"
)

var (
	ErrBadRequest = errors.New("bad request")
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("resource not found")
	ErrLocked     = errors.New("resource is locked")
	ErrConflict   = errors.New("conflict")

	// Slot conflicts. ErrSlotNotAvailable covers both withdrawn and
	// already-booked slots: the caller's remedy is the same, refetch.
	ErrSlotNotAvailable = errors.New("slot is not available")
	ErrSlotInPast       = errors.New("slot is in the past")

	// Session state conflicts.
	ErrNotReschedulable      = errors.New("session is not reschedulable")
	ErrNotCancellable        = errors.New("session is not cancellable")
	ErrNotConfirmable        = errors.New("session is not confirmable")
	ErrNotCompletable        = errors.New("session is not completable")
	ErrCrossMentorReschedule = errors.New("new slot belongs to a different mentor")
)

func Error(code, msg string) Response {
	return Response{
		ResponseError: ResponseError{
			Code:    code,
			Message: msg,
		},
	}
}
