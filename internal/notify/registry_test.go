package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inovacc/drivesign/internal/model"
)

func TestRegistry_Names(t *testing.T) {
	r := NewRegistry()

	names := r.Names()
	require.Len(t, names, len(model.KnownChannels))

	for i, c := range model.KnownChannels {
		assert.Equal(t, string(c), names[i])
	}
}

func TestRegistry_Build_CanonicalOrder(t *testing.T) {
	r := NewRegistry()

	senders, err := r.Build([]string{"smtp", "telegram", "dingtalk", "telegram"}, model.ChannelConfig{})
	require.NoError(t, err)
	require.Len(t, senders, 3)

	assert.Equal(t, "dingtalk", senders[0].Name())
	assert.Equal(t, "telegram", senders[1].Name())
	assert.Equal(t, "smtp", senders[2].Name())
}

func TestRegistry_Build_UnknownChannel(t *testing.T) {
	r := NewRegistry()

	senders, err := r.Build([]string{"pushplus", "fax"}, model.ChannelConfig{})
	assert.ErrorIs(t, err, ErrUnknownChannel)
	assert.Contains(t, err.Error(), "fax")

	require.Len(t, senders, 1)
	assert.Equal(t, "pushplus", senders[0].Name())
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	custom := &fakeSender{name: "custom"}

	r.Register("custom", func(cfg model.ChannelConfig, opts ...Option) Sender { return custom })

	names := r.Names()
	assert.Equal(t, "custom", names[len(names)-1])

	senders, err := r.Build([]string{"custom"}, nil)
	require.NoError(t, err)
	require.Len(t, senders, 1)
	assert.Same(t, custom, senders[0])
}
