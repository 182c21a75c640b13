package common

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(nil, nil)
	require.NoError(t, err)

	def := DefaultConfig()
	assert.Equal(t, def.Database.DSN, cfg.Database.DSN)
	assert.Equal(t, ":8080", cfg.Server.GRPCAddr)
	assert.Equal(t, 200, cfg.OCR.DPI)
	assert.Equal(t, "eng", cfg.OCR.Lang)
	assert.Equal(t, 4, cfg.Queue.Workers)
	assert.Equal(t, 5*time.Minute, cfg.Queue.Timeout)
}

func TestLoadConfigFlagsOverrideEnv(t *testing.T) {
	t.Setenv("TAXPARSER_OCR_DPI", "150")
	t.Setenv("TAXPARSER_STORAGE_WORK_DIR", "/env/dir")

	cfg, err := LoadConfig(nil, []string{"--work-dir", "/flag/dir", "--log-format", "json"})
	require.NoError(t, err)

	assert.Equal(t, 150, cfg.OCR.DPI)
	assert.Equal(t, "/flag/dir", cfg.Storage.WorkDir)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OCR.DPI = 0
	err := cfg.Validate()
	require.Error(t, err)

	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "CONFIG_ERROR", appErr.Code)
	assert.ErrorIs(t, err, ErrInvalidInput)

	cfg = DefaultConfig()
	cfg.Log.Format = "xml"
	assert.Error(t, cfg.Validate())
}

func TestValidatorCollectsFailures(t *testing.T) {
	v := NewValidator().
		Field("file_name", "form.txt", Required, PDFFileName).
		Field("id", "not-a-uuid", UUID)

	require.True(t, v.HasErrors())
	assert.Len(t, v.Errors(), 2)
	assert.ErrorIs(t, v.Error(), ErrValidation)

	ok := NewValidator().
		Field("file_name", "1040.pdf", Required, PDFFileName)
	assert.NoError(t, ok.Error())
}

func TestToStatus(t *testing.T) {
	assert.Nil(t, ToStatus(nil))
	assert.Contains(t, ToStatus(ErrUnknownFieldKind).Error(), "InvalidArgument")
	assert.Contains(t, ToStatus(WrapError(ErrNotFound, "form")).Error(), "NotFound")
	assert.Contains(t, ToStatus(errors.New("boom")).Error(), "Internal")
}
