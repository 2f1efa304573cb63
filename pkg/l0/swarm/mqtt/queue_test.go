package mqtt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatchTopic(t *testing.T) {
	testCases := []struct {
		topic  string
		filter string
		match  bool
	}{
		{"lab/n1/meta", "lab/n1/meta", true},
		{"lab/n1/meta", "lab/+/meta", true},
		{"lab/n1/meta", "+/+/meta", true},
		{"lab/n1/meta", "lab/#", true},
		{"lab", "lab/#", true},
		{"lab/n1/meta", "#", true},
		{"lab/n1/meta", "lab/+", false},
		{"lab/n1", "lab/+/meta", false},
		{"lab/n1/meta/x", "lab/+/meta", false},
		{"other/n1/meta", "lab/+/meta", false},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.match, MatchTopic(tc.topic, tc.filter), "%s ~ %s", tc.topic, tc.filter)
	}
}

func TestClientOptionsFromURL(t *testing.T) {
	testCases := []struct {
		url      string
		server   string
		prefix   string
		user     string
		password string
		clientID string
	}{
		{"mqtt://localhost:1883/swarmio/", "tcp://localhost:1883", "swarmio/", "", "", ""},
		{"mqtt://localhost:1883/swarmio", "tcp://localhost:1883", "swarmio/", "", "", ""},
		{"tcp://broker:1883", "tcp://broker:1883", "", "", "", ""},
		{"mqtts://u:p@broker:8883/a/b/?client-id=c1", "ssl://broker:8883", "a/b/", "u", "p", "c1"},
	}
	for _, tc := range testCases {
		t.Run(tc.url, func(t *testing.T) {
			opts, prefix, err := ClientOptionsFromURL(tc.url)
			require.NoError(t, err)
			require.Len(t, opts.Servers, 1)
			require.Equal(t, tc.server, opts.Servers[0].String())
			require.Equal(t, tc.prefix, prefix)
			require.Equal(t, tc.user, opts.Username)
			require.Equal(t, tc.password, opts.Password)
			require.Equal(t, tc.clientID, opts.ClientID)
		})
	}

	_, _, err := ClientOptionsFromURL("/no/host")
	require.Error(t, err)
}

func TestQueueDeliver(t *testing.T) {
	q, err := NewQueueFromURL("mqtt://localhost:1883/swarmio/")
	require.NoError(t, err)
	var got []string
	sub1 := q.Sub("lab/+/meta", func(topic string, payload []byte) {
		got = append(got, "1:"+topic+"="+string(payload))
	})
	q.Sub("lab/#", func(topic string, payload []byte) {
		got = append(got, "2:"+topic+"="+string(payload))
	})

	q.deliver("swarmio/lab/n1/meta", []byte("x"))
	require.ElementsMatch(t, []string{"1:lab/n1/meta=x", "2:lab/n1/meta=x"}, got)

	got = nil
	q.deliver("other/lab/n1/meta", []byte("x"))
	require.Empty(t, got)

	require.NoError(t, sub1.Close())
	q.deliver("swarmio/lab/n1/meta", []byte("y"))
	require.Equal(t, []string{"2:lab/n1/meta=y"}, got)
}
