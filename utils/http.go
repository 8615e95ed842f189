package utils

import (
	"encoding/json"
	"net/http"
)

// Envelope is the body of every successful response
type Envelope struct {
	Status  int         `json:"status"`
	Type    string      `json:"type"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
	Error   bool        `json:"error"`
}

// ListEnvelope is a success envelope carrying paging metadata
type ListEnvelope struct {
	Envelope
	Total       int `json:"total"`
	CurrentPage int `json:"currentPage"`
	PerPage     int `json:"perPage"`
}

// ErrorEntry is one failure reported in an error envelope
type ErrorEntry struct {
	Status  int    `json:"status"`
	Type    string `json:"type"`
	Message string `json:"message"`
	Path    string `json:"path"`
	Field   string `json:"field,omitempty"`
}

// ErrorEnvelope is the body of every failed response
type ErrorEnvelope struct {
	Error []ErrorEntry `json:"error"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return nil
	}

	return json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a success envelope
func WriteSuccess(w http.ResponseWriter, status int, message string, data interface{}) error {
	return WriteJSON(w, status, Envelope{
		Status:  status,
		Type:    "success",
		Message: message,
		Data:    data,
		Error:   false,
	})
}

// WriteOK writes a 200 success envelope
func WriteOK(w http.ResponseWriter, message string, data interface{}) error {
	return WriteSuccess(w, http.StatusOK, message, data)
}

// WriteCreated writes a 201 success envelope
func WriteCreated(w http.ResponseWriter, message string, data interface{}) error {
	return WriteSuccess(w, http.StatusCreated, message, data)
}

// WriteList writes a 200 success envelope with paging metadata
func WriteList(w http.ResponseWriter, message string, data interface{}, total, currentPage, perPage int) error {
	return WriteJSON(w, http.StatusOK, ListEnvelope{
		Envelope: Envelope{
			Status:  http.StatusOK,
			Type:    "success",
			Message: message,
			Data:    data,
			Error:   false,
		},
		Total:       total,
		CurrentPage: currentPage,
		PerPage:     perPage,
	})
}

// ErrorTypeName returns the error name reported for a status code
func ErrorTypeName(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "BadRequestError"
	case http.StatusUnauthorized:
		return "UnauthorizedError"
	case http.StatusForbidden:
		return "ForbiddenError"
	case http.StatusNotFound:
		return "NotFoundError"
	case http.StatusConflict:
		return "ConflictError"
	case http.StatusTooManyRequests:
		return "TooManyRequestsError"
	case http.StatusServiceUnavailable:
		return "ServiceUnavailableError"
	default:
		return "InternalServerError"
	}
}

// WriteErrors writes an error envelope holding entries. Entries without a
// status, type or path inherit them from the response.
func WriteErrors(w http.ResponseWriter, r *http.Request, status int, entries ...ErrorEntry) error {
	for i := range entries {
		if entries[i].Status == 0 {
			entries[i].Status = status
		}
		if entries[i].Type == "" {
			entries[i].Type = ErrorTypeName(status)
		}
		if entries[i].Path == "" {
			entries[i].Path = r.URL.RequestURI()
		}
	}
	return WriteJSON(w, status, ErrorEnvelope{Error: entries})
}

// WriteError writes an error envelope with a single message
func WriteError(w http.ResponseWriter, r *http.Request, status int, message string) error {
	return WriteErrors(w, r, status, ErrorEntry{Message: message})
}

// WriteBadRequest writes a 400 error envelope
func WriteBadRequest(w http.ResponseWriter, r *http.Request, message string) error {
	return WriteError(w, r, http.StatusBadRequest, message)
}

// WriteUnauthorized writes a 401 error envelope
func WriteUnauthorized(w http.ResponseWriter, r *http.Request, message string) error {
	if message == "" {
		message = "Unauthorized"
	}
	return WriteError(w, r, http.StatusUnauthorized, message)
}

// WriteForbidden writes a 403 error envelope
func WriteForbidden(w http.ResponseWriter, r *http.Request, message string) error {
	if message == "" {
		message = "Access forbidden"
	}
	return WriteError(w, r, http.StatusForbidden, message)
}

// WriteNotFound writes a 404 error envelope
func WriteNotFound(w http.ResponseWriter, r *http.Request, message string) error {
	if message == "" {
		message = "Resource not found"
	}
	return WriteError(w, r, http.StatusNotFound, message)
}

// WriteTooManyRequests writes a 429 error envelope
func WriteTooManyRequests(w http.ResponseWriter, r *http.Request, message string) error {
	if message == "" {
		message = "Too many requests, please try again later"
	}
	return WriteError(w, r, http.StatusTooManyRequests, message)
}

// WriteInternalServerError writes a 500 error envelope
func WriteInternalServerError(w http.ResponseWriter, r *http.Request, message string) error {
	if message == "" {
		message = "Internal Server Error"
	}
	return WriteError(w, r, http.StatusInternalServerError, message)
}
