package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation ErrCode = "VALIDATION_ERROR"
	ErrInvalidID  ErrCode = "INVALID_ID"

	// ─── Banks ─────────────────────────────────────────────────────────
	ErrBankNotFound     ErrCode = "BANK_NOT_FOUND"
	ErrBankNotCustom    ErrCode = "BANK_NOT_CUSTOM"
	ErrBankEmpty        ErrCode = "BANK_EMPTY"
	ErrQuestionNotFound ErrCode = "QUESTION_NOT_FOUND"

	// ─── Upload ────────────────────────────────────────────────────────
	ErrFileRequired    ErrCode = "FILE_REQUIRED"
	ErrUnsupportedFile ErrCode = "UNSUPPORTED_FILE_TYPE"
	ErrFileTooLarge    ErrCode = "FILE_TOO_LARGE"

	// ─── Sessions ──────────────────────────────────────────────────────
	ErrSessionNotFound     ErrCode = "SESSION_NOT_FOUND"
	ErrEmptySelection      ErrCode = "EMPTY_SELECTION"
	ErrEmptyWrongSet       ErrCode = "EMPTY_WRONG_SET"
	ErrUnknownOption       ErrCode = "UNKNOWN_OPTION"
	ErrAlreadySubmitted    ErrCode = "ALREADY_SUBMITTED"
	ErrNotSubmitted        ErrCode = "NOT_SUBMITTED"
	ErrNoPreviousQuestion  ErrCode = "NO_PREVIOUS_QUESTION"
	ErrSessionCompleted    ErrCode = "SESSION_COMPLETED"
	ErrSessionNotCompleted ErrCode = "SESSION_NOT_COMPLETED"
	ErrTranslationStale    ErrCode = "TRANSLATION_STALE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// WarnPersistence is placed in metadata.warning when a change could not be
// saved but is still in effect.
const WarnPersistence = "PERSISTENCE_WARNING: changes are kept in memory but could not be saved."

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."

	// ─── Banks ─────────────────────────────────────────────────────────
	case ErrBankNotFound:
		return "Question bank not found."
	case ErrBankNotCustom:
		return "Only uploaded banks can be deleted."
	case ErrBankEmpty:
		return "The bank contains no valid questions."
	case ErrQuestionNotFound:
		return "Question not found in this bank."

	// ─── Upload ────────────────────────────────────────────────────────
	case ErrFileRequired:
		return "A file upload is required."
	case ErrUnsupportedFile:
		return "Only .jsonl files are supported."
	case ErrFileTooLarge:
		return "File size exceeds the limit."

	// ─── Sessions ──────────────────────────────────────────────────────
	case ErrSessionNotFound:
		return "No active quiz session with this ID."
	case ErrEmptySelection:
		return "Select at least one option before submitting."
	case ErrEmptyWrongSet:
		return "There are no wrongly answered questions to practice."
	case ErrUnknownOption:
		return "That option does not exist for this question."
	case ErrAlreadySubmitted:
		return "This question has already been submitted."
	case ErrNotSubmitted:
		return "Submit the current question before moving on."
	case ErrNoPreviousQuestion:
		return "Already at the first question."
	case ErrSessionCompleted:
		return "The quiz has already ended."
	case ErrSessionNotCompleted:
		return "The quiz has not ended yet."
	case ErrTranslationStale:
		return "The question changed before the translation arrived."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
