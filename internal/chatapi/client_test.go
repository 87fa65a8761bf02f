// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL + "/api/chat")
}

func TestSend_PostsUserMessage(t *testing.T) {
	var got Request
	var headers http.Header
	var method, path string

	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		method, path, headers = r.Method, r.URL.Path, r.Header.Clone()
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &got)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"reply":"hi"}`))
	})

	reply, err := client.Send(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "hi", reply)

	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "/api/chat", path)
	assert.Equal(t, "hello", got.UserMessage)
	assert.Equal(t, "application/json", headers.Get("Content-Type"))
	assert.NotEmpty(t, headers.Get("X-Request-ID"))
	assert.True(t, strings.HasPrefix(headers.Get("User-Agent"), "elysian/"))
}

func TestSend_MissingReply(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty object", `{}`},
		{"null reply", `{"reply":null}`},
		{"empty reply", `{"reply":""}`},
		{"other fields", `{"message":"x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})
			reply, err := client.Send(context.Background(), "x")
			require.NoError(t, err)
			assert.Equal(t, "", reply)
		})
	}
}

func TestSend_ErrorClasses(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"server error html", http.StatusInternalServerError, `<h1>boom</h1>`, ErrDecode},
		{"not found empty", http.StatusNotFound, ``, ErrDecode},
		{"not json", http.StatusOK, `<html>`, ErrDecode},
		{"array body", http.StatusOK, `["hi"]`, ErrDecode},
		{"empty body", http.StatusOK, ``, ErrDecode},
		{"reply wrong type", http.StatusOK, `{"reply":42}`, ErrDecode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			_, err := client.Send(context.Background(), "x")
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestSend_NonSuccessStatusUsesBody(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"reply on 500", http.StatusInternalServerError, `{"reply":"hi"}`, "hi"},
		{"error object on 400", http.StatusBadRequest, `{"error":"bad"}`, ""},
		{"null reply on 503", http.StatusServiceUnavailable, `{"reply":null}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			reply, err := client.Send(context.Background(), "x")
			require.NoError(t, err)
			assert.Equal(t, tt.want, reply)
		})
	}
}

func TestSend_StatusErrorDetail(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down"))
	})

	_, err := client.Send(context.Background(), "x")
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadGateway, se.Status)
	assert.Equal(t, "upstream down", se.Body)
	assert.True(t, errors.Is(err, ErrDecode))
	assert.Equal(t, "status", Classify(err))
}

func TestSend_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewClient(url).Send(context.Background(), "x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransport))
	assert.Equal(t, "transport", Classify(err))
}

func TestSend_Timeout(t *testing.T) {
	release := make(chan struct{})
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)
	client.WithTimeout(50 * time.Millisecond)

	_, err := client.Send(context.Background(), "x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransport))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestSend_OversizedResponse(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"reply":"`))
		w.Write([]byte(strings.Repeat("a", MaxResponseSize)))
		w.Write([]byte(`"}`))
	})

	_, err := client.Send(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maximum size")
}

func TestNewClient_DefaultEndpoint(t *testing.T) {
	assert.Equal(t, DefaultEndpoint, NewClient("").Endpoint())
	assert.Equal(t, "http://x/api/chat", NewClient("http://x/api/chat").Endpoint())
}

func TestClassify(t *testing.T) {
	assert.Equal(t, "", Classify(nil))
	assert.Equal(t, "other", Classify(errors.New("x")))
	assert.Equal(t, "decode", Classify(ErrDecode))
}
