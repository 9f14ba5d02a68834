package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound             ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized         ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden            ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest           ErrorCode = "BAD_REQUEST"
	ErrCodeValidation           ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidTransition    ErrorCode = "INVALID_TRANSITION"
	ErrCodePaymentVerification  ErrorCode = "PAYMENT_VERIFICATION_FAILED"
	ErrCodeInvalidAmount        ErrorCode = "INVALID_AMOUNT"
	ErrCodeInsufficientFunds    ErrorCode = "INSUFFICIENT_FUNDS"
	ErrCodePayoutDetailsMissing ErrorCode = "PAYOUT_DETAILS_MISSING"
	ErrCodeGateway              ErrorCode = "GATEWAY_ERROR"
	ErrCodeTooManyRequests      ErrorCode = "TOO_MANY_REQUESTS"
	ErrCodeInternal             ErrorCode = "INTERNAL_ERROR"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

// Internal оборачивает непредвиденный сбой хранилища.
func Internal(err error) *AppError {
	return Wrap(err, ErrCodeInternal, "внутренняя ошибка сервера")
}

// Gateway оборачивает недоступность платёжного шлюза; операцию можно безопасно повторить.
func Gateway(err error) *AppError {
	return Wrap(err, ErrCodeGateway, "платёжный шлюз недоступен, повторите попытку позже")
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeBadRequest, ErrCodeValidation, ErrCodeInvalidAmount:
		return http.StatusBadRequest
	case ErrCodeInvalidTransition:
		return http.StatusConflict
	case ErrCodePaymentVerification:
		return http.StatusPaymentRequired
	case ErrCodeInsufficientFunds, ErrCodePayoutDetailsMissing:
		return http.StatusUnprocessableEntity
	case ErrCodeGateway:
		return http.StatusBadGateway
	case ErrCodeTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// CodeOf возвращает код ошибки или пустую строку, если это не AppError.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

func IsNotFound(err error) bool {
	return CodeOf(err) == ErrCodeNotFound
}

func IsForbidden(err error) bool {
	return CodeOf(err) == ErrCodeForbidden
}

func IsValidation(err error) bool {
	return CodeOf(err) == ErrCodeValidation
}

func IsInvalidTransition(err error) bool {
	return CodeOf(err) == ErrCodeInvalidTransition
}

var (
	ErrOrderNotFound      = New(ErrCodeNotFound, "заказ не найден")
	ErrSellerNotFound     = New(ErrCodeNotFound, "продавец не найден")
	ErrPaymentNotFound    = New(ErrCodeNotFound, "платёж не найден")
	ErrMilestoneNotFound  = New(ErrCodeNotFound, "этап не найден")
	ErrWithdrawalNotFound = New(ErrCodeNotFound, "заявка на вывод не найдена")
	ErrResolutionNotFound = New(ErrCodeNotFound, "обращение не найдено")

	ErrUnauthorized   = New(ErrCodeUnauthorized, "требуется авторизация")
	ErrNotOrderSeller = New(ErrCodeForbidden, "действие доступно только исполнителю заказа")
	ErrNotOrderClient = New(ErrCodeForbidden, "действие доступно только заказчику")
	ErrNotParticipant = New(ErrCodeForbidden, "вы не участник этого заказа")

	ErrPaymentVerificationFailed = New(ErrCodePaymentVerification, "не удалось подтвердить оплату")
	ErrInsufficientFunds         = New(ErrCodeInsufficientFunds, "недостаточно средств для вывода")
	ErrPayoutDetailsMissing      = New(ErrCodePayoutDetailsMissing, "не указаны подтверждённые реквизиты для выплаты")
)

// InvalidTransition сообщает, что операция недопустима в текущем статусе.
func InvalidTransition(message string) *AppError {
	return New(ErrCodeInvalidTransition, message)
}

// InvalidAmount сообщает о недопустимой сумме.
func InvalidAmount(message string) *AppError {
	return New(ErrCodeInvalidAmount, message)
}

// Validation сообщает о нарушении схемы запроса.
func Validation(message string) *AppError {
	return New(ErrCodeValidation, message)
}
