// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides a local stand-in for the chat API, so the client
// can be developed and tried without the real backend.
//
// # Usage
//
//	srv := server.NewServer(server.Options{Addr: "localhost:8081", RatePerSec: 5, Burst: 10})
//	go srv.ListenAndServe()
//	defer srv.Shutdown(ctx)
//
// # Middleware
//
// Requests pass through chi's RequestID, RealIP and Recoverer middleware,
// structured request logging, security headers, CORS, and a per-IP token
// bucket on /api routes.
package server
