package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenNoFileOrEnv(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "GUIDED", cfg.Admission.Mode)
	assert.Equal(t, "abort-step", cfg.Executor.OnDocFailure)
	assert.Equal(t, "in-process", cfg.Transport.ChannelBackend)
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("DOCORCH_ADMISSION_MODE", "STRICT")
	t.Setenv("DOCORCH_CHANNEL_BACKEND", "redis")
	t.Setenv("DOCORCH_EXECUTOR_DECISION_TIMEOUT", "5s")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "STRICT", cfg.Admission.Mode)
	assert.Equal(t, "redis", cfg.Transport.ChannelBackend)
	assert.Equal(t, 5_000_000_000, int(cfg.Executor.DecisionTimeout))
}

func TestValidate_RejectsUnknownAdmissionMode(t *testing.T) {
	c := &Config{
		Admission: AdmissionConfig{Mode: "YOLO"},
		Executor:  ExecutorConfig{OnDocFailure: "abort-step"},
		Transport: TransportConfig{ChannelBackend: "in-process"},
	}
	assert.Error(t, c.Validate())
}

func TestValidate_RejectsUnknownChannelBackend(t *testing.T) {
	c := &Config{
		Admission: AdmissionConfig{Mode: "GUIDED"},
		Executor:  ExecutorConfig{OnDocFailure: "abort-step"},
		Transport: TransportConfig{ChannelBackend: "carrier-pigeon"},
	}
	assert.Error(t, c.Validate())
}
