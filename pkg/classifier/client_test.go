package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httputil "github.com/mccedddy/EczApp/pkg/infrastructure/http"
)

func TestPredict_SendsContract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer id-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"base64Image": "aGVsbG8="}, body)

		w.Write([]byte(`{"severity":"moderate"}`))
	}))
	defer srv.Close()

	res, err := NewClient(srv.URL, srv.Client()).Predict(context.Background(), "aGVsbG8=", "id-token")
	require.NoError(t, err)
	assert.Equal(t, Result{"severity": "moderate"}, res)
}

func TestPredict_PreservesAuxiliaryFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"severity":"severe","scores":{"mild":0.1,"severe":0.9},"model":"v3"}`))
	}))
	defer srv.Close()

	res, err := NewClient(srv.URL, nil).Predict(context.Background(), "x", "t")
	require.NoError(t, err)
	assert.Equal(t, Result{
		"severity": "severe",
		"scores":   map[string]interface{}{"mild": 0.1, "severe": 0.9},
		"model":    "v3",
	}, res)
}

func TestPredict_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, nil).Predict(context.Background(), "x", "t")

	var httpErr *httputil.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, 500, httpErr.StatusCode)
	assert.Equal(t, "Internal Server Error", httpErr.Status)
}

func TestPredict_Connectivity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, nil).Predict(context.Background(), "x", "t")
	assert.ErrorIs(t, err, ErrConnectivity)
}

func TestPredict_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, nil).Predict(context.Background(), "x", "t")
	assert.ErrorIs(t, err, ErrMalformedResponse)
}
