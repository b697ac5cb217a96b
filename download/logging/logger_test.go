package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/Strum355/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "json", want: FormatJSON},
		{in: " JSON ", want: FormatJSON},
		{in: "text", want: FormatText},
		{in: "xml", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInitJSONWritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	Init(FormatJSON, &buf)

	ctx := WithFields(context.Background(), log.Fields{"request_id": "abc"})
	log.WithContext(ctx).Info("extraction_complete")

	line := strings.TrimSpace(strings.Split(buf.String(), "\n")[0])
	require.NotEmpty(t, line)
	assert.True(t, json.Valid([]byte(line)), "not JSON: %s", line)
	assert.Contains(t, line, "extraction_complete")
	assert.Contains(t, line, "abc")
}

func TestInitTextWritesSomething(t *testing.T) {
	var buf bytes.Buffer
	Init(FormatText, &buf)

	log.Info("server_started")

	assert.Contains(t, buf.String(), "server_started")
}

func TestWithFieldsMerges(t *testing.T) {
	ctx := WithFields(context.Background(), log.Fields{"a": 1, "b": 2})
	ctx = WithFields(ctx, log.Fields{"b": 3, "c": 4})

	assert.Equal(t, log.Fields{"a": 1, "b": 3, "c": 4}, FieldsFrom(ctx))
	assert.Nil(t, FieldsFrom(context.Background()))
}
