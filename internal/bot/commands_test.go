package bot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EgorLis/trtl/pkg/blacket"
)

func TestSplitArgs(t *testing.T) {
	assert.Equal(t, []string{"!sell", "Light Blue", "3"}, splitArgs(`!sell "Light Blue" 3`))
	assert.Equal(t, []string{"!news"}, splitArgs("  !news  "))
	assert.Empty(t, splitArgs(""))
}

func TestEconomyCommandsAreAdminOnly(t *testing.T) {
	fc := newFakeClient()
	b := New(fc)
	ctx := context.Background()

	for _, cmd := range []string{"!claim", "!open Space", "!sell Dog", "!save"} {
		assert.ErrorIs(t, b.HandleCommand(ctx, "stranger", cmd), errNotAdmin, cmd)
	}
	assert.Empty(t, fc.calls)
}

func TestAdminBootstrap(t *testing.T) {
	fc := newFakeClient()
	b := New(fc)
	ctx := context.Background()

	require.NoError(t, b.HandleCommand(ctx, "acai", "!admin add acai"))
	assert.Equal(t, "[bot] admin added: acai", fc.lastSent())

	// дальше только админы
	assert.ErrorIs(t, b.HandleCommand(ctx, "mallory", "!admin add mallory"), errNotAdmin)
	require.NoError(t, b.HandleCommand(ctx, "acai", "!admin add bob"))

	require.NoError(t, b.HandleCommand(ctx, "bob", "!admin list"))
	assert.Equal(t, "[bot] admins: acai, bob", fc.lastSent())

	require.NoError(t, b.HandleCommand(ctx, "bob", "!admin del acai"))
	assert.Error(t, b.HandleCommand(ctx, "bob", "!admin del acai"))
	assert.ErrorIs(t, b.HandleCommand(ctx, "acai", "!claim"), errNotAdmin)
}

func TestClaim(t *testing.T) {
	fc := newFakeClient()
	b := New(fc)
	b.cfg.addAdmin("acai")
	ctx := context.Background()

	require.NoError(t, b.HandleCommand(ctx, "acai", "!claim"))
	assert.Equal(t, "[bot] claimed", fc.lastSent())

	fc.result = blacket.Result{"error": true, "reason": "You already claimed today."}
	require.NoError(t, b.HandleCommand(ctx, "acai", "!claim"))
	assert.Equal(t, "[bot] claim failed: You already claimed today.", fc.lastSent())
}

func TestOpenAndSell(t *testing.T) {
	fc := newFakeClient()
	b := New(fc)
	b.cfg.addAdmin("acai")
	ctx := context.Background()

	fc.result = blacket.Result{"error": false, "blook": "Dog"}
	require.NoError(t, b.HandleCommand(ctx, "acai", "!open Space"))
	assert.Equal(t, "[bot] Space: Dog", fc.lastSent())

	require.NoError(t, b.HandleCommand(ctx, "acai", `!sell "Light Blue" 3`))
	assert.Equal(t, "[bot] sold 3 Light Blue", fc.lastSent())
	assert.Equal(t, []string{"open Space", "sell Light Blue"}, fc.calls)

	assert.Error(t, b.HandleCommand(ctx, "acai", "!sell Dog zero"))
	assert.Error(t, b.HandleCommand(ctx, "acai", "!open"))
}

func TestUserAndNews(t *testing.T) {
	fc := newFakeClient()
	b := New(fc)
	ctx := context.Background()

	fc.result = blacket.Result{"error": false, "user": map[string]any{"username": "acai", "tokens": float64(1500), "role": "Owner"}}
	require.NoError(t, b.HandleCommand(ctx, "anyone", "!user acai"))
	assert.Equal(t, "[bot] acai: 1500 tokens (Owner)", fc.lastSent())

	fc.result = blacket.Result{"error": true, "reason": "User not found."}
	assert.EqualError(t, b.HandleCommand(ctx, "anyone", "!user ghost"), "User not found.")
	assert.Error(t, b.HandleCommand(ctx, "anyone", "!user"))

	fc.result = blacket.Result{"news": []any{
		map[string]any{"title": "one"}, map[string]any{"title": "two"},
		map[string]any{"title": "three"}, map[string]any{"title": "four"},
	}}
	require.NoError(t, b.HandleCommand(ctx, "anyone", "!news"))
	assert.Equal(t, "[bot] news: one | two | three", fc.lastSent())

	fc.result = blacket.Result{"news": []any{}}
	require.NoError(t, b.HandleCommand(ctx, "anyone", "!news"))
	assert.Equal(t, "[bot] news: (empty)", fc.lastSent())
}
