// Copyright (c) 2025 Fixonway
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestLoginSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/auth/login" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Email != "mara@example.com" {
			t.Errorf("email = %q", req.Email)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"user":  map[string]string{"_id": "u1", "fullName": "Mara Voss", "email": req.Email},
			"token": "tok-123",
		})
	}))
	defer srv.Close()

	res, err := NewClient(srv.URL).Login(context.Background(), " mara@example.com ", "hunter2")
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if res.User.ID != "u1" || res.Token != "tok-123" {
		t.Errorf("result = %+v", res)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "wrong password"})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Login(context.Background(), "mara@example.com", "nope")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestRegisterEmailTaken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Register(context.Background(), "Mara Voss", "mara@example.com", "hunter2")
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("err = %v, want ErrEmailTaken", err)
	}
}

func TestRetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"user":  map[string]string{"_id": "u1", "fullName": "Mara Voss"},
			"token": "tok",
		})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Login(context.Background(), "mara@example.com", "hunter2")
	if err != nil {
		t.Fatalf("Login() after retries error: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestNoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Login(context.Background(), "mara@example.com", "x")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1 (4xx must not retry)", calls.Load())
	}
}

func TestExhaustedRetriesReturnUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).WithMaxRetries(1).Login(context.Background(), "a@b.c", "x")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestMeSendsBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Errorf("Authorization = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]string{"_id": "u1", "fullName": "Mara Voss"})
	}))
	defer srv.Close()

	user, err := NewClient(srv.URL).Me(context.Background(), "tok-123")
	if err != nil {
		t.Fatalf("Me() error: %v", err)
	}
	if user.ID != "u1" {
		t.Errorf("user = %+v", user)
	}
}
