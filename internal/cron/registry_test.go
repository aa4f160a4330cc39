package cron

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type namedJob string

func (n namedJob) Name() string                       { return string(n) }
func (n namedJob) Run(context.Context) (int64, error) { return 0, nil }

func TestRegistryOrderAndDuplicates(t *testing.T) {
	registry := NewRegistry(namedJob("job-expiry"), nil)

	assert.True(t, registry.Register(namedJob("outbox-retention")))
	assert.False(t, registry.Register(namedJob("job-expiry")), "duplicate name accepted")
	assert.False(t, registry.Register(nil))

	assert.Equal(t, []string{"job-expiry", "outbox-retention"}, registry.Names())

	jobs := registry.Jobs()
	jobs[0] = nil
	assert.NotNil(t, registry.Jobs()[0], "Jobs leaked the internal slice")
}
