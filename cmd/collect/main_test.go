package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/go-pkgz/lgr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LJTian/AIDaily/internal/config"
	"github.com/LJTian/AIDaily/internal/report"
)

func TestSaveDigestWarnsWithoutDSN(t *testing.T) {
	var buf bytes.Buffer
	lgr.Setup(lgr.Out(&buf))
	defer lgr.Setup()

	err := saveDigest(context.Background(), &config.Config{}, report.Digest{}, []byte("<html></html>"))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "WARN")
	assert.Contains(t, buf.String(), "POSTGRES_DSN is not set")
}
