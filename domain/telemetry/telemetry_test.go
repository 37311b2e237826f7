package telemetry

import (
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	customlog "github.com/open-teleop/rover-console/pkg/log"
	"github.com/open-teleop/rover-console/pkg/rover"
)

func testLogger() customlog.Logger {
	return customlog.NewLogrusLoggerWithOutput("error", io.Discard)
}

type scriptedSource struct {
	status rover.Status
	err    error
	lines  []string
	logErr error
}

func (s *scriptedSource) Status() (rover.Status, error) { return s.status, s.err }
func (s *scriptedSource) Log() ([]string, error)        { return s.lines, s.logErr }

type slotRecorder struct {
	mu    sync.Mutex
	slots map[string]interface{}
}

func (r *slotRecorder) SetSlot(name string, value interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.slots == nil {
		r.slots = make(map[string]interface{})
	}
	r.slots[name] = value
}

type modeRecorder struct{ calls []bool }

func (m *modeRecorder) SyncMode(autonomous bool) { m.calls = append(m.calls, autonomous) }

type mirror struct{ lines []string }

func (m *mirror) ReplaceFromServer(lines []string) { m.lines = lines }

func intp(v int) *int           { return &v }
func floatp(v float64) *float64 { return &v }

func TestConnectionReportsTransitionsOnly(t *testing.T) {
	var seen []State
	conn := NewConnection(testLogger(), ConnectionListenerFunc(func(s State) { seen = append(seen, s) }))

	assert.Equal(t, Disconnected, conn.State())
	conn.Fail()
	conn.Succeed()
	conn.Succeed()
	conn.Fail()

	assert.Equal(t, []State{Connected, Disconnected}, seen)
}

func TestPropertyConnectedIffLastPollSucceeded(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 200
	props := gopter.NewProperties(params)

	props.Property("state follows the last outcome", prop.ForAll(
		func(outcomes []bool) bool {
			src := &scriptedSource{}
			conn := NewConnection(testLogger())
			p := NewPoller(src, conn, testLogger(), PollerOptions{})

			for _, ok := range outcomes {
				if ok {
					src.err = nil
				} else {
					src.err = errors.New("timeout")
				}
				_ = p.Tick()
			}

			if len(outcomes) == 0 {
				return conn.State() == Disconnected
			}
			want := Disconnected
			if outcomes[len(outcomes)-1] {
				want = Connected
			}
			return conn.State() == want
		},
		gen.SliceOf(gen.Bool()),
	))

	props.TestingRun(t)
}

func TestTickProjectsManualSnapshot(t *testing.T) {
	src := &scriptedSource{status: rover.Status{
		Latitude: 23.8103, Longitude: 90.4125, Heading: 87.26, Speed: 1.5,
		Satellites: 9, GPSValid: true,
	}}
	slots := &slotRecorder{}
	mode := &modeRecorder{}
	p := NewPoller(src, NewConnection(testLogger()), testLogger(), PollerOptions{Mode: mode, Projector: slots})

	require.NoError(t, p.Tick())

	assert.Equal(t, "23.81030, 90.41250", slots.slots[SlotPosition])
	assert.Equal(t, "87.3°", slots.slots[SlotHeading])
	assert.Equal(t, "1.50 km/h", slots.slots[SlotSpeed])
	assert.Equal(t, "✓ 9 sats", slots.slots[SlotGPSStatus])
	assert.Equal(t, "23.8103000", slots.slots[SlotLatitude])
	assert.Equal(t, "9", slots.slots[SlotSatellites])
	assert.Equal(t, "✓ Valid", slots.slots[SlotGPSValid])
	assert.Equal(t, NoValue, slots.slots[SlotWaypoint])
	assert.Equal(t, NoValue, slots.slots[SlotDistanceToTarget])
	assert.Equal(t, Fix{Lat: 23.8103, Lon: 90.4125}, slots.slots[SlotRoverPosition])
	assert.Equal(t, []bool{false}, mode.calls)

	fix, ok := p.LastFix()
	assert.True(t, ok)
	assert.Equal(t, 90.4125, fix.Lon)
}

func TestTickProjectsMissionProgress(t *testing.T) {
	src := &scriptedSource{status: rover.Status{
		AutonomousMode:   true,
		CurrentWaypoint:  intp(0),
		TotalWaypoints:   intp(2),
		DistanceToTarget: floatp(12.345),
	}}
	slots := &slotRecorder{}
	p := NewPoller(src, NewConnection(testLogger()), testLogger(), PollerOptions{Projector: slots})

	require.NoError(t, p.Tick())

	assert.Equal(t, "1 / 2", slots.slots[SlotWaypoint])
	assert.Equal(t, "12.35 m", slots.slots[SlotDistanceToTarget])
	assert.Equal(t, "✗ No fix", slots.slots[SlotGPSStatus])
	assert.Equal(t, "✗ Invalid", slots.slots[SlotGPSValid])
}

func TestRoverPositionNeedsRealFix(t *testing.T) {
	cases := []rover.Status{
		{GPSValid: false, Latitude: 23.8, Longitude: 90.4},
		{GPSValid: true, Latitude: 0, Longitude: 90.4},
		{GPSValid: true, Latitude: 23.8, Longitude: 0},
	}
	for _, status := range cases {
		slots := &slotRecorder{}
		p := NewPoller(&scriptedSource{status: status}, NewConnection(testLogger()), testLogger(), PollerOptions{Projector: slots})
		require.NoError(t, p.Tick())

		_, projected := slots.slots[SlotRoverPosition]
		assert.False(t, projected, "status %+v", status)
		_, ok := p.LastFix()
		assert.False(t, ok, "status %+v", status)
	}
}

func TestFailedTickLeavesSlotsAlone(t *testing.T) {
	src := &scriptedSource{err: errors.New("refused")}
	slots := &slotRecorder{}
	mode := &modeRecorder{}
	conn := NewConnection(testLogger())
	p := NewPoller(src, conn, testLogger(), PollerOptions{Mode: mode, Projector: slots})

	assert.Error(t, p.Tick())
	assert.Empty(t, slots.slots)
	assert.Empty(t, mode.calls)
	assert.Equal(t, Disconnected, conn.State())
}

func TestFetchLogReplacesMirror(t *testing.T) {
	src := &scriptedSource{lines: []string{"boot", "gps ok"}}
	m := &mirror{}
	conn := NewConnection(testLogger())
	conn.Succeed()
	p := NewPoller(src, conn, testLogger(), PollerOptions{ServerLog: m})

	require.NoError(t, p.FetchLog())
	assert.Equal(t, []string{"boot", "gps ok"}, m.lines)

	src.logErr = errors.New("refused")
	assert.Error(t, p.FetchLog())
	assert.Equal(t, []string{"boot", "gps ok"}, m.lines)
	assert.Equal(t, Connected, conn.State(), "log fetch must not touch connection state")
}
