package proxy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerRotatesProxies(t *testing.T) {
	m, err := NewManager([]string{"http://p1:8000", "http://p2:8000"}, nil)
	require.NoError(t, err)

	assert.Equal(t, "p1:8000", m.NextProxy().Host)
	assert.Equal(t, "p2:8000", m.NextProxy().Host)
	assert.Equal(t, "p1:8000", m.NextProxy().Host)
}

func TestManagerWithoutProxies(t *testing.T) {
	m, err := NewManager(nil, nil)
	require.NoError(t, err)

	u, err := m.Proxy(nil)
	require.NoError(t, err)
	assert.Nil(t, u)
	assert.Contains(t, DefaultUserAgents, m.UserAgent())
}

func TestManagerUserAgents(t *testing.T) {
	m, err := NewManager(nil, []string{"picscan-test/1.0"})
	require.NoError(t, err)
	assert.Equal(t, "picscan-test/1.0", m.UserAgent())
}

func TestManagerRejectsBadProxy(t *testing.T) {
	_, err := NewManager([]string{"http://bad host:80"}, nil)
	assert.Error(t, err)
}
