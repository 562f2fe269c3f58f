package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tt := []struct {
		name  string
		level zerolog.Level
		err   bool
	}{
		{"", zerolog.InfoLevel, false},
		{"debug", zerolog.DebugLevel, false},
		{"WARN", zerolog.WarnLevel, false},
		{"loud", zerolog.NoLevel, true},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			level, err := ParseLevel(tc.name)
			if tc.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.level, level)
		})
	}
}

func TestComponentLogger(t *testing.T) {
	saved := Logger
	defer func() { Logger = saved }()

	var buf bytes.Buffer
	SetOutput(&buf, true)
	SetLevel(zerolog.InfoLevel)

	logger := Component("engine")
	logger.Debug().Msg("hidden")
	logger.Info().Str("tx", "abc").Msg("applied")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "engine", line["component"])
	require.Equal(t, "abc", line["tx"])
	require.Equal(t, "applied", line["message"])
}
