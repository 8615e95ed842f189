package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	t.Run("successful write", func(t *testing.T) {
		w := httptest.NewRecorder()
		data := map[string]string{"message": "test"}

		err := WriteJSON(w, http.StatusOK, data)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var response map[string]string
		err = json.NewDecoder(w.Body).Decode(&response)
		require.NoError(t, err)
		assert.Equal(t, "test", response["message"])
	})

	t.Run("nil data", func(t *testing.T) {
		w := httptest.NewRecorder()

		err := WriteJSON(w, http.StatusNoContent, nil)
		require.NoError(t, err)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	})
}

func TestWriteOK(t *testing.T) {
	w := httptest.NewRecorder()

	err := WriteOK(w, "fetch user data successfully", map[string]int{"id": 7})
	require.NoError(t, err)

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(200), response["status"])
	assert.Equal(t, "success", response["type"])
	assert.Equal(t, "fetch user data successfully", response["message"])
	assert.Equal(t, false, response["error"])
	assert.Equal(t, float64(7), response["data"].(map[string]interface{})["id"])
}

func TestWriteCreated(t *testing.T) {
	w := httptest.NewRecorder()

	require.NoError(t, WriteCreated(w, "user created!!", nil))

	var response Envelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, http.StatusCreated, response.Status)
	assert.Nil(t, response.Data)
}

func TestWriteList(t *testing.T) {
	w := httptest.NewRecorder()

	require.NoError(t, WriteList(w, "All tenants fetched!!", []int{1, 2}, 12, 2, 6))

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, float64(12), response["total"])
	assert.Equal(t, float64(2), response["currentPage"])
	assert.Equal(t, float64(6), response["perPage"])
	assert.Len(t, response["data"], 2)
}

func TestWriteErrors(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register?x=1", nil)
	w := httptest.NewRecorder()

	err := WriteErrors(w, r, http.StatusBadRequest,
		ErrorEntry{Message: "username already exists", Field: "userName"},
		ErrorEntry{Message: "Invalid email format", Field: "email"},
	)
	require.NoError(t, err)

	var response ErrorEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	require.Len(t, response.Error, 2)
	for _, e := range response.Error {
		assert.Equal(t, http.StatusBadRequest, e.Status)
		assert.Equal(t, "BadRequestError", e.Type)
		assert.Equal(t, "/api/v1/auth/register?x=1", e.Path)
	}
	assert.Equal(t, "email", response.Error[1].Field)
}

func TestWriteErrorHelpers(t *testing.T) {
	tests := []struct {
		name     string
		write    func(http.ResponseWriter, *http.Request) error
		status   int
		typeName string
		message  string
	}{
		{"bad request", func(w http.ResponseWriter, r *http.Request) error { return WriteBadRequest(w, r, "Invalid url param.") },
			http.StatusBadRequest, "BadRequestError", "Invalid url param."},
		{"unauthorized default", func(w http.ResponseWriter, r *http.Request) error { return WriteUnauthorized(w, r, "") },
			http.StatusUnauthorized, "UnauthorizedError", "Unauthorized"},
		{"forbidden", func(w http.ResponseWriter, r *http.Request) error {
			return WriteForbidden(w, r, "You don't have enough permissions")
		}, http.StatusForbidden, "ForbiddenError", "You don't have enough permissions"},
		{"not found default", func(w http.ResponseWriter, r *http.Request) error { return WriteNotFound(w, r, "") },
			http.StatusNotFound, "NotFoundError", "Resource not found"},
		{"too many requests", func(w http.ResponseWriter, r *http.Request) error { return WriteTooManyRequests(w, r, "") },
			http.StatusTooManyRequests, "TooManyRequestsError", "Too many requests, please try again later"},
		{"internal default", func(w http.ResponseWriter, r *http.Request) error { return WriteInternalServerError(w, r, "") },
			http.StatusInternalServerError, "InternalServerError", "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/x", nil)
			w := httptest.NewRecorder()
			require.NoError(t, tt.write(w, r))

			var response ErrorEnvelope
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			assert.Equal(t, tt.status, w.Code)
			require.Len(t, response.Error, 1)
			assert.Equal(t, tt.typeName, response.Error[0].Type)
			assert.Equal(t, tt.message, response.Error[0].Message)
			assert.Equal(t, "/x", response.Error[0].Path)
		})
	}
}
