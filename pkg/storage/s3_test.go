package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportKey(t *testing.T) {
	at := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	key := ExportKey("registrations", at)
	assert.Regexp(t, `^exports/registrations/2026-10-19-[0-9a-f-]{36}\.csv$`, key)
	assert.NotEqual(t, key, ExportKey("registrations", at))
}

func TestNewS3RequiresBucket(t *testing.T) {
	_, err := NewS3(context.Background(), S3Config{Region: "us-east-1"}, nil)
	require.Error(t, err)
}

func TestPresignExpireDefault(t *testing.T) {
	s := &S3{cfg: S3Config{}}
	assert.Equal(t, 15*time.Minute, s.PresignExpire())
	s.cfg.PresignExpireMinutes = 5
	assert.Equal(t, 5*time.Minute, s.PresignExpire())
}
