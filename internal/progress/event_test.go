package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEventValidate(t *testing.T) {
	t.Parallel()

	now := time.Unix(1700000000, 0).UTC()

	tests := []struct {
		name    string
		event   Event
		wantErr string
	}{
		{
			name:  "run stage",
			event: Event{RunID: "run-1", TS: now, Stage: StageRunStart},
		},
		{
			name:  "endpoint stage with endpoint",
			event: Event{RunID: "run-1", TS: now, Stage: StageEndpointDone, Endpoint: "slug"},
		},
		{
			name:    "missing run id",
			event:   Event{TS: now, Stage: StageRunStart},
			wantErr: "run id",
		},
		{
			name:    "missing timestamp",
			event:   Event{RunID: "run-1", Stage: StageRunStart},
			wantErr: "timestamp",
		},
		{
			name:    "endpoint stage without endpoint",
			event:   Event{RunID: "run-1", TS: now, Stage: StageEndpointError},
			wantErr: "requires an endpoint",
		},
		{
			name:    "unknown stage",
			event:   Event{RunID: "run-1", TS: now, Stage: "MYSTERY"},
			wantErr: "unknown stage",
		},
		{
			name:    "negative duration",
			event:   Event{RunID: "run-1", TS: now, Stage: StageRunDone, Dur: -time.Second},
			wantErr: "duration",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := tc.event.Validate()
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tc.wantErr)
		})
	}
}
