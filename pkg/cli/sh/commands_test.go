package sh

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/swarmio/pkg/l0/comm"
)

func TestCommandBuilders(t *testing.T) {
	testCases := []struct {
		name   string
		build  func([]string) (string, error)
		args   string
		expect string
	}{
		{"sub digital", SubCommand, "digital button1", "sub digital button1"},
		{"sub digital short", SubCommand, "d button1", "sub digital button1"},
		{"sub analog", SubCommand, "analog 10 sensor1", "sub analog 10 sensor1"},
		{"sub analog short", SubCommand, "a 0 sensor1", "sub analog 0 sensor1"},
		{"sub missing name", SubCommand, "digital", ""},
		{"sub analog missing name", SubCommand, "analog 10", ""},
		{"sub negative threshold", SubCommand, "analog -1 s", ""},
		{"sub unknown kind", SubCommand, "servo s1", ""},
		{"sub long name", SubCommand, "digital " + strings.Repeat("x", 100), ""},
		{"mot", MotorCommand, "m1 -50", "mot m1 -50"},
		{"mot bad speed", MotorCommand, "m1 fast", ""},
		{"mot out of range", MotorCommand, "m1 40000", ""},
		{"mot missing speed", MotorCommand, "m1", ""},
		{"led on", LEDCommand, "on", "led on"},
		{"led off", LEDCommand, "0", "led off"},
		{"led bad", LEDCommand, "dim", ""},
		{"led missing", LEDCommand, "", ""},
		{"otr rising", TriggerCommand, "b1 rising m1 100", "otr b1 1 m1 100"},
		{"otr falling", TriggerCommand, "b1 f m1 -100", "otr b1 0 m1 -100"},
		{"otr bad edge", TriggerCommand, "b1 up m1 100", ""},
		{"otr bad value", TriggerCommand, "b1 1 m1 x", ""},
		{"otr missing", TriggerCommand, "b1 1 m1", ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cmd, err := tc.build(strings.Fields(tc.args))
			if tc.expect == "" {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expect, cmd)
		})
	}
}

func TestFormatLine(t *testing.T) {
	testCases := []struct {
		line   string
		expect string
	}{
		{"suc mot 50", "OK 50"},
		{"suc led", "OK"},
		{"err sub", "FAILED sub"},
		{"#debug nodes = []", "# nodes = []"},
		{"!button1 1", "button1 = 1"},
		{">>>", ">>>"},
		{"Setup: node n1", "Setup: node n1"},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.expect, FormatLine(comm.ParseLine(tc.line)))
	}
}
