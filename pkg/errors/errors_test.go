package errors_test

import (
	"errors"
	"fmt"
	"testing"

	pkgerrors "github.com/agentstation/rfreconcile/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := pkgerrors.New("test error")
	assert.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestNotFoundError(t *testing.T) {
	t.Run("basic error", func(t *testing.T) {
		err := &pkgerrors.NotFoundError{Resource: "sheet", ID: "LTE"}
		assert.Equal(t, "sheet LTE not found", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrNotFound))
	})

	t.Run("wrapped error", func(t *testing.T) {
		base := pkgerrors.NewNotFoundError("station", "ABB")
		wrapped := errors.Join(errors.New("failed"), base)
		assert.True(t, pkgerrors.IsNotFound(wrapped))
	})
}

func TestValidationError(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		err := pkgerrors.NewValidationError("latitude_min", -91, "must be >= -90")
		assert.Equal(t, "validation failed for field latitude_min: must be >= -90", err.Error())
		assert.True(t, pkgerrors.IsValidationError(err))
	})

	t.Run("without field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{Message: "bad settings"}
		assert.Equal(t, "validation failed: bad settings", err.Error())
	})
}

func TestMissingColumnsError(t *testing.T) {
	tests := []struct {
		name string
		err  *pkgerrors.MissingColumnsError
		want string
	}{
		{
			name: "with table",
			err:  pkgerrors.NewMissingColumnsError("baseline", []string{"latitude", "longitude"}),
			want: "table baseline is missing required columns: latitude, longitude",
		},
		{
			name: "without table",
			err:  pkgerrors.NewMissingColumnsError("", []string{"station_id"}),
			want: "missing required columns: station_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
			assert.True(t, pkgerrors.IsMissingColumns(tt.err))
			assert.True(t, pkgerrors.IsMissingColumns(fmt.Errorf("load: %w", tt.err)))
		})
	}
}

func TestSiteError(t *testing.T) {
	cause := pkgerrors.NewParseError("float", "", "bad latitude", nil)
	err := pkgerrors.NewSiteError("ABB", "select", cause)

	assert.Equal(t, "station ABB: select: float parse error: bad latitude", err.Error())
	assert.Same(t, cause, errors.Unwrap(err))

	var siteErr *pkgerrors.SiteError
	require.True(t, errors.As(fmt.Errorf("run: %w", err), &siteErr))
	assert.Equal(t, "ABB", siteErr.StationID)

	noOp := pkgerrors.NewSiteError("XYZ", "", errors.New("boom"))
	assert.Equal(t, "station XYZ: boom", noOp.Error())
}

func TestConfigError(t *testing.T) {
	base := errors.New("key not set")
	err := pkgerrors.NewConfigError("settings", "processing.detect_extended_cells is required", base)

	assert.Contains(t, err.Error(), "configuration error in settings")
	assert.ErrorIs(t, err, base)

	bare := &pkgerrors.ConfigError{Message: "nothing"}
	assert.Equal(t, "configuration error: nothing", bare.Error())
}

func TestIOError(t *testing.T) {
	base := errors.New("permission denied")
	err := pkgerrors.NewIOError("write", "/tmp/out.xlsx", base)

	assert.Equal(t, "IO error during write of /tmp/out.xlsx: permission denied", err.Error())
	assert.ErrorIs(t, err, base)
}

func TestParseError(t *testing.T) {
	err := pkgerrors.NewParseError("xlsx", "in.xlsx", "corrupt archive", nil)
	assert.Equal(t, "parse error in xlsx file in.xlsx: corrupt archive", err.Error())
}

func TestWrapHelpers(t *testing.T) {
	t.Run("nil passthrough", func(t *testing.T) {
		assert.NoError(t, pkgerrors.WrapIO("read", "x", nil))
		assert.NoError(t, pkgerrors.WrapParse("yaml", "x", nil))
		assert.NoError(t, pkgerrors.WrapValidation("f", nil))
		assert.NoError(t, pkgerrors.WrapSite("ABB", "op", nil))
	})

	t.Run("wraps", func(t *testing.T) {
		base := errors.New("boom")

		var ioErr *pkgerrors.IOError
		require.ErrorAs(t, pkgerrors.WrapIO("read", "a.xlsx", base), &ioErr)
		assert.Equal(t, "a.xlsx", ioErr.Path)

		var parseErr *pkgerrors.ParseError
		require.ErrorAs(t, pkgerrors.WrapParse("yaml", "s.yaml", base), &parseErr)
		assert.Equal(t, "boom", parseErr.Message)

		assert.True(t, pkgerrors.IsValidationError(pkgerrors.WrapValidation("f", base)))
		assert.ErrorIs(t, pkgerrors.WrapSite("ABB", "apply", base), base)
	})
}

func TestSentinels(t *testing.T) {
	assert.True(t, pkgerrors.IsNotFound(fmt.Errorf("open: %w", pkgerrors.NewNotFoundError("file", "a.xlsx"))))
	assert.True(t, pkgerrors.IsCanceled(fmt.Errorf("run: %w", pkgerrors.ErrCanceled)))
	assert.False(t, pkgerrors.IsCanceled(pkgerrors.ErrNotFound))
}
