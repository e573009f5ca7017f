package light

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "stop", PhaseStop.String())
	assert.Equal(t, "go", PhaseGo.String())
	assert.Equal(t, "phase(7)", Phase(7).String())
}

func TestPhase_Next(t *testing.T) {
	assert.Equal(t, PhaseGo, PhaseStop.Next())
	assert.Equal(t, PhaseStop, PhaseGo.Next())
}

func TestParsePhase(t *testing.T) {
	tests := []struct {
		input   string
		want    Phase
		wantErr bool
	}{
		{"stop", PhaseStop, false},
		{"red", PhaseStop, false},
		{"go", PhaseGo, false},
		{"green", PhaseGo, false},
		{"amber", PhaseStop, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePhase(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPhase_TextEncoding(t *testing.T) {
	data, err := json.Marshal(map[string]Phase{"north": PhaseGo})
	require.NoError(t, err)
	assert.JSONEq(t, `{"north":"go"}`, string(data))

	var decoded map[string]Phase
	require.NoError(t, json.Unmarshal([]byte(`{"south":"red"}`), &decoded))
	assert.Equal(t, PhaseStop, decoded["south"])

	_, err = Phase(3).MarshalText()
	assert.Error(t, err)
}

func TestParseDwell(t *testing.T) {
	d, err := ParseDwell("sleep")
	require.NoError(t, err)
	assert.Equal(t, DwellSleep, d)

	d, err = ParseDwell("")
	require.NoError(t, err)
	assert.Equal(t, DwellSpin, d)

	_, err = ParseDwell("nap")
	assert.Error(t, err)
}
