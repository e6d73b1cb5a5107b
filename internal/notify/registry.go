package notify

import (
	"errors"
	"fmt"

	"github.com/inovacc/drivesign/internal/model"
)

// Factory builds a sender from channel credentials.
type Factory func(cfg model.ChannelConfig, opts ...Option) Sender

// Registry maps channel names to sender factories, keeping registration order
// as dispatch order.
type Registry struct {
	order     []string
	factories map[string]Factory
}

// NewRegistry returns a registry holding every built-in channel.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}

	builtin := map[model.ChannelType]Factory{
		model.ChannelDingTalk:   NewDingTalkSender,
		model.ChannelWeCom:      NewWeComSender,
		model.ChannelServerChan: NewServerChanSender,
		model.ChannelPushDeer:   NewPushDeerSender,
		model.ChannelTelegram:   NewTelegramSender,
		model.ChannelPushPlus:   NewPushPlusSender,
		model.ChannelSlack:      NewSlackSender,
		model.ChannelSMTP:       NewSMTPSender,
	}

	for _, name := range model.KnownChannels {
		r.Register(string(name), builtin[name])
	}

	return r
}

// Register adds or replaces the factory for name. New names go last.
func (r *Registry) Register(name string, f Factory) {
	if _, ok := r.factories[name]; !ok {
		r.order = append(r.order, name)
	}

	r.factories[name] = f
}

// Names returns the registered channel names in dispatch order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)

	return out
}

// Build creates senders for the enabled channel names, in registry order.
// Unknown names are reported in the error; senders for the known ones are
// still returned.
func (r *Registry) Build(enabled []string, cfg model.ChannelConfig, opts ...Option) ([]Sender, error) {
	var errs []error

	want := make(map[string]struct{}, len(enabled))
	for _, name := range enabled {
		if _, seen := want[name]; seen {
			continue
		}

		want[name] = struct{}{}

		if _, ok := r.factories[name]; !ok {
			errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownChannel, name))
		}
	}

	senders := make([]Sender, 0, len(want))

	for _, name := range r.order {
		if _, ok := want[name]; !ok {
			continue
		}

		senders = append(senders, r.factories[name](cfg, opts...))
	}

	return senders, errors.Join(errs...)
}
