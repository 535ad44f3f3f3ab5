package types

import (
    "errors"
    "net/http"

    appErr "github.com/branchstack/engine/pkg/errors"
)

func FromAppError(err error) *APIError {
    if err == nil {
        return nil
    }
    var ae *appErr.AppError
    if errors.As(err, &ae) {
        return &APIError{Code: string(ae.Code), Message: ae.Message}
    }
    return &APIError{Code: string(appErr.CodeUnknown), Message: err.Error()}
}

// HTTPStatus maps an error's code onto the response status: invalid and
// unsupported requests are the client's fault, everything unknown is a 500.
func HTTPStatus(err error) int {
    var ae *appErr.AppError
    if !errors.As(err, &ae) {
        return http.StatusInternalServerError
    }
    switch ae.Code {
    case appErr.CodeInvalid, appErr.CodeUnsupported:
        return http.StatusBadRequest
    case appErr.CodeNotFound:
        return http.StatusNotFound
    case appErr.CodeConflict:
        return http.StatusConflict
    default:
        return http.StatusInternalServerError
    }
}
