package repairlog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssh4net/meshrepair/repairlog"
)

func TestGetReturnsUsableLoggerBeforeInit(t *testing.T) {
	assert.NotPanics(t, func() {
		repairlog.Get().Infow("pre-init log line")
	})
}

func TestInitInstallsLoggerAndJobScopesFields(t *testing.T) {
	require.NoError(t, repairlog.Init(repairlog.Options{Verbose: true}))

	logger := repairlog.Job(42, "11111111-1111-1111-1111-111111111111")
	assert.NotPanics(t, func() {
		logger.Infow("job started")
	})
}
