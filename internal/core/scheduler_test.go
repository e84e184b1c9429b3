package core_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/fxdesk/internal/core"
)

func TestStartSessionJanitor_InvalidConfig(t *testing.T) {
	svc := newService(t, core.ServiceConfig{}, nil)

	err := svc.StartSessionJanitor(context.Background(), core.JanitorConfig{Schedule: "every now and then"})
	assert.ErrorContains(t, err, "schedule session janitor")

	err = svc.StartSessionJanitor(context.Background(), core.JanitorConfig{TimeZone: "Mars/Olympus"})
	assert.ErrorContains(t, err, "load time zone")
}

func TestStartSessionJanitor_DiscardsIdleSessions(t *testing.T) {
	svc := newService(t, core.ServiceConfig{SessionIdleTimeout: time.Millisecond}, nil)
	doc := ingestOne(t, svc, "mtm", "j.csv", mtmCSV(mtmRow))
	_, err := svc.OpenSession(doc.ID)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, svc.StartSessionJanitor(ctx, core.JanitorConfig{Schedule: "@every 1s", TimeZone: "UTC"}))

	assert.Eventually(t, func() bool {
		return len(svc.OpenSessions()) == 0
	}, 3*time.Second, 50*time.Millisecond)
}
