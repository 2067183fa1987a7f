// Copyright (c) 2025 Fixonway
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComposerDraftsPerConversation(t *testing.T) {
	var c Composer
	c.SetDraft("c1", "half-typed reply")
	c.SetDraft("c2", "other chat")

	require.Equal(t, "half-typed reply", c.Draft("c1"))
	require.Equal(t, "other chat", c.Draft("c2"))
	require.Empty(t, c.Draft("c3"))
}

func TestComposerSubmitTrimsAndClears(t *testing.T) {
	var c Composer
	c.SetDraft("c1", "  send this  ")

	require.Equal(t, "send this", c.Submit("c1"))
	require.Empty(t, c.Draft("c1"))
}

func TestComposerSubmitBlankIsNoop(t *testing.T) {
	var c Composer
	c.SetDraft("c1", "   ")
	require.Empty(t, c.Submit("c1"))
	require.Empty(t, c.Submit("never-set"))
}
