package node

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/swarmio/pkg/l0/comm"
	"github.com/robotalks/swarmio/pkg/l0/hw"
	"github.com/robotalks/swarmio/pkg/l0/hw/sim"
)

type failingSwarm struct{}

func (failingSwarm) Setup(context.Context) error { return errors.New("no broker") }

type dispatcherTestEnv struct {
	t        *testing.T
	hw       *sim.Provider
	out      bytes.Buffer
	reg      Registry
	d        Dispatcher
	restarts int
}

func newDispatcherTestEnv(t *testing.T) *dispatcherTestEnv {
	env := &dispatcherTestEnv{t: t, hw: sim.New()}
	env.d = Dispatcher{
		Registry:  &env.reg,
		Hardware:  env.hw,
		Swarm:     env.hw,
		Restarter: RestartFunc(func() { env.restarts++ }),
		Out:       comm.NewWriter(&env.out),
	}
	return env
}

func (e *dispatcherTestEnv) do(line string) string {
	e.out.Reset()
	e.d.Dispatch(context.Background(), line)
	return e.out.String()
}

func TestDispatchSubscribe(t *testing.T) {
	testCases := []struct {
		name   string
		line   string
		expect string
		kind   string
	}{
		{"digital", "sub digital button1",
			"#debug Subscribed to Button Press on button1\r\nsuc sub\r\n", "digital"},
		{"analog", "sub analog 5 sensor1",
			"#debug Subscribed to Analog Value on sensor1\r\nsuc sub\r\n", "analog"},
		{"analog bad threshold", "sub analog x sensor1",
			"#debug Subscribed to Analog Value on sensor1\r\nsuc sub\r\n", "analog"},
		{"unknown kind", "sub servo s1", "err sub\r\n", ""},
		{"no kind", "sub", "err sub\r\n", ""},
		{"digital without name", "sub digital", "err sub\r\n", ""},
		{"digital empty name", "sub digital ", "err sub\r\n", ""},
		{"analog without name", "sub analog 5", "err sub\r\n", ""},
		{"analog negative threshold", "sub analog -5 sensor1", "err sub\r\n", ""},
		{"name too long", "sub digital " + string(bytes.Repeat([]byte{'x'}, MaxNameLen+1)), "err sub\r\n", ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := newDispatcherTestEnv(t)
			require.Equal(t, tc.expect, env.do(tc.line))
			if tc.kind == "" {
				require.Equal(t, 0, env.reg.Len())
				return
			}
			require.Equal(t, 1, env.reg.Len())
			require.Equal(t, tc.kind, env.reg.nodes[0].Monitor.Kind())
		})
	}
}

func TestDispatchSubscribeInitialState(t *testing.T) {
	env := newDispatcherTestEnv(t)
	env.do("sub digital button1")
	env.do("sub analog 7 sensor1")
	d := env.reg.nodes[0].Monitor.(*Digital)
	require.Equal(t, Unknown, d.Last)
	a := env.reg.nodes[1].Monitor.(*Analog)
	require.Equal(t, uint32(0), a.Last)
	require.Equal(t, uint32(7), a.Threshold)
}

func TestDispatchSubscribeHardwareError(t *testing.T) {
	env := newDispatcherTestEnv(t)
	env.hw.Strict = true
	require.Equal(t, "err sub\r\n", env.do("sub digital nosuch"))
	require.Equal(t, 0, env.reg.Len())
}

func TestDispatchMotor(t *testing.T) {
	env := newDispatcherTestEnv(t)
	require.Equal(t, "suc mot 50\r\n", env.do("mot m1 50"))
	require.Equal(t, int16(50), env.hw.AddMotor("m1").Speed())
	require.Equal(t, 0, env.reg.Len())

	require.Equal(t, "suc mot -20\r\n", env.do("mot m1 -20"))
	require.Equal(t, int16(-20), env.hw.AddMotor("m1").Speed())

	require.Equal(t, "suc mot 0\r\n", env.do("mot m1 fast"))
	require.Equal(t, int16(0), env.hw.AddMotor("m1").Speed())

	require.Equal(t, "suc mot 100000\r\n", env.do("mot m1 100000"))
	require.Equal(t, int16(32767), env.hw.AddMotor("m1").Speed())

	require.Equal(t, "err mot\r\n", env.do("mot m1"))
	require.Equal(t, "err mot\r\n", env.do("mot"))
}

func TestDispatchLED(t *testing.T) {
	env := newDispatcherTestEnv(t)
	require.Equal(t, "suc led\r\n", env.do("led on"))
	for i := LEDFirst; i < LEDEnd; i++ {
		require.Equal(t, hw.White, env.hw.AddLED(i).Color())
		require.Equal(t, uint8(LEDOnBrightness), env.hw.AddLED(i).Brightness())
	}
	require.Equal(t, hw.Black, env.hw.AddLED(LEDFirst-1).Color())
	require.Equal(t, hw.Black, env.hw.AddLED(LEDEnd).Color())

	require.Equal(t, "suc led\r\n", env.do("led whatever"))
	for i := LEDFirst; i < LEDEnd; i++ {
		require.Equal(t, hw.Black, env.hw.AddLED(i).Color())
		require.Equal(t, uint8(0), env.hw.AddLED(i).Brightness())
	}
}

func TestDispatchOutputTrigger(t *testing.T) {
	env := newDispatcherTestEnv(t)
	require.Equal(t, "suc otr\r\n", env.do("otr button1 1 m1 80"))
	require.Equal(t, "suc otr\r\n", env.do("otr button1 0 m1 -80"))
	require.Equal(t, 0, env.reg.Len())

	sw, mot := env.hw.AddSwitch("button1"), env.hw.AddMotor("m1")
	sw.Set(true)
	require.Equal(t, int16(80), mot.Speed())
	sw.Set(false)
	require.Equal(t, int16(-80), mot.Speed())

	require.Equal(t, "err otr\r\n", env.do("otr button1 1 m1"))
}

func TestDispatchNodes(t *testing.T) {
	env := newDispatcherTestEnv(t)
	require.Equal(t, "#debug nodes = []\r\nsuc nod\r\n", env.do("nod"))

	env.do("sub digital a")
	env.do("sub analog 1 b")
	env.do("sub digital c")
	require.Equal(t, "#debug nodes = [\r\n"+
		"#debug 'a',\r\n"+
		"#debug 'b',\r\n"+
		"#debug 'c',\r\n"+
		"#debug ]\r\n"+
		"suc nod\r\n", env.do("nod"))
}

func TestDispatchSetup(t *testing.T) {
	env := newDispatcherTestEnv(t)
	require.Equal(t, "suc stp\r\n", env.do("stp"))
	require.Equal(t, 1, env.hw.Setups())

	env.d.Swarm = failingSwarm{}
	require.Equal(t, "err stp\r\n", env.do("stp"))
}

func TestDispatchRestart(t *testing.T) {
	env := newDispatcherTestEnv(t)
	require.Empty(t, env.do("res"))
	require.Equal(t, 1, env.restarts)
}

func TestDispatchUnknown(t *testing.T) {
	env := newDispatcherTestEnv(t)
	for _, line := range []string{"foo", "SUB digital a", "hello world", "xsub digital a"} {
		env.out.Reset()
		require.False(t, env.d.Dispatch(context.Background(), line))
		require.Empty(t, env.out.String())
	}
	require.Equal(t, 0, env.reg.Len())
}
