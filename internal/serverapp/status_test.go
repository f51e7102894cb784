package serverapp

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusPage_RendersCountsAndEscapes(t *testing.T) {
	var b strings.Builder
	err := statusPage(statusView{
		Recipes:  12,
		Stations: 3,
		Clients:  2,
		Sweeps:   []string{"crafts", "<respawns>"},
		Now:      time.Date(2026, 4, 1, 8, 30, 0, 0, time.UTC),
	}).Render(context.Background(), &b)
	require.NoError(t, err)

	html := b.String()
	assert.Contains(t, html, "<h1>wildcraft</h1>")
	assert.Contains(t, html, "<dt>Recipes</dt><dd>12</dd>")
	assert.Contains(t, html, "<dt>Live clients</dt><dd>2</dd>")
	assert.Contains(t, html, "<dd>crafts, &lt;respawns&gt;</dd>")
	assert.Contains(t, html, "<dd>2026-04-01T08:30:00Z</dd>")
}

func TestStatusPage_NoSweeps(t *testing.T) {
	var b strings.Builder
	require.NoError(t, statusPage(statusView{}).Render(context.Background(), &b))
	assert.Contains(t, b.String(), "<dt>Sweeps</dt><dd>none</dd>")
}
