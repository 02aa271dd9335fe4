package queue

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJob(t *testing.T) {
	job, err := NewJob(JobTypeIndexReconcile, ReconcilePayload{RequestedBy: "admin@mystikapp.com"})
	require.NoError(t, err)
	assert.Len(t, job.ID, 36)
	assert.Equal(t, JobTypeIndexReconcile, job.Type)
	assert.Zero(t, job.Attempt)
	assert.JSONEq(t, `{"requested_by":"admin@mystikapp.com"}`, string(job.Payload))

	raw, err := json.Marshal(job)
	require.NoError(t, err)
	var back Job
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, job.ID, back.ID)
	assert.Equal(t, JobTypeIndexReconcile, back.Type)
}

func TestNewJobRejectsUnmarshalable(t *testing.T) {
	_, err := NewJob(JobTypeIndexReconcile, make(chan int))
	assert.Error(t, err)
}
