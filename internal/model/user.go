// Copyright (c) 2025 Fixonway
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "strings"

// User is an identity owned by the auth subsystem. The chat core only ever
// references users by ID and never mutates them.
type User struct {
	ID       string `json:"_id"`
	FullName string `json:"fullName"`
	Email    string `json:"email,omitempty"`
}

// DisplayName returns the name to show in the roster and chat header.
func (u User) DisplayName() string {
	name := strings.TrimSpace(u.FullName)
	if name != "" {
		return name
	}
	if u.Email != "" {
		return u.Email
	}
	return u.ID
}

// Initial returns the single-character avatar initial for the user.
func (u User) Initial() string {
	name := u.DisplayName()
	for _, r := range name {
		return strings.ToUpper(string(r))
	}
	return "?"
}

// IsZero reports whether the user carries no identity at all.
func (u User) IsZero() bool {
	return u.ID == "" && u.FullName == "" && u.Email == ""
}
