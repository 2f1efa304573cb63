package sim

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/swarmio/pkg/l0/hw"
)

func TestProviderCreatesOnDemand(t *testing.T) {
	p := New()
	sw, err := p.Switch("button1")
	require.NoError(t, err)
	require.Same(t, p.AddSwitch("button1"), sw)

	a, err := p.Analog("sensor1")
	require.NoError(t, err)
	p.AddAnalog("sensor1").Set(42)
	require.Equal(t, uint32(42), a.Value())
}

func TestProviderStrict(t *testing.T) {
	p := New()
	p.Strict = true
	_, err := p.Motor("m1")
	require.Error(t, err)
	require.IsType(t, &hw.UnknownElementError{}, err)

	p.AddMotor("m1")
	m, err := p.Motor("m1")
	require.NoError(t, err)
	require.NoError(t, m.SetSpeed(10))
	require.Equal(t, int16(10), p.AddMotor("m1").Speed())
}

func TestSwitchTriggers(t *testing.T) {
	p := New()
	sw := p.AddSwitch("button1")
	up, down := p.AddMotor("up"), p.AddMotor("down")
	require.NoError(t, sw.OnTrigger(hw.EdgeRising, up, 100))
	require.NoError(t, sw.OnTrigger(hw.EdgeFalling, down, -100))

	sw.Set(true)
	require.Equal(t, int16(100), up.Speed())
	require.Equal(t, 0, down.Sets())

	sw.Set(true)
	require.Equal(t, 1, up.Sets())

	sw.Set(false)
	require.Equal(t, int16(-100), down.Speed())
	require.Equal(t, 1, up.Sets())
}

func TestLEDAndSetup(t *testing.T) {
	p := New()
	l, err := p.LED(3)
	require.NoError(t, err)
	require.NoError(t, l.SetColor(hw.White))
	require.NoError(t, l.SetBrightness(50))
	require.Equal(t, hw.White, p.AddLED(3).Color())
	require.Equal(t, uint8(50), p.AddLED(3).Brightness())

	require.NoError(t, p.Setup(context.Background()))
	require.Equal(t, 1, p.Setups())
}
