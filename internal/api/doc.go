// Copyright (c) 2025 Fixonway
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the Fixonway REST API.
//
// The realtime channel carries all chat traffic; this package covers the
// request/response surface around it, chiefly authentication. Transient
// server failures retry with exponential backoff; authentication failures
// surface as typed sentinel errors the CLI can match on.
package api
