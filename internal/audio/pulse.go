// Package audio handles output sink discovery, selection, and PCM playback.
package audio

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

// Device describes one Pulse output sink surfaced to talker.
type Device struct {
	ID          string
	Description string
	State       string
	Available   bool
	Muted       bool
	Default     bool
}

// Selection is the resolved playback sink plus optional fallback warning context.
type Selection struct {
	Device   Device
	Warning  string
	Fallback bool
}

func newClient() (*pulse.Client, error) {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName("talker"),
		pulse.ClientApplicationIconName("audio-speakers"),
	)
	if err != nil {
		return nil, fmt.Errorf("connect pulse server: %w", err)
	}
	return client, nil
}

// ListDevices returns Pulse output sinks with default/availability metadata.
func ListDevices(_ context.Context) ([]Device, error) {
	client, err := newClient()
	if err != nil {
		return nil, err
	}
	defer client.Close()

	defaultSink, err := client.DefaultSink()
	if err != nil {
		return nil, fmt.Errorf("read default sink: %w", err)
	}
	defaultID := defaultSink.ID()

	var sinkInfos pulseproto.GetSinkInfoListReply
	if err := client.RawRequest(&pulseproto.GetSinkInfoList{}, &sinkInfos); err != nil {
		return nil, fmt.Errorf("list sinks: %w", err)
	}

	devices := make([]Device, 0, len(sinkInfos))
	for _, sink := range sinkInfos {
		if sink == nil {
			continue
		}
		devices = append(devices, Device{
			ID:          sink.SinkName,
			Description: sink.Device,
			State:       sinkStateString(sink.State),
			Available:   sinkAvailable(sink),
			Muted:       sink.Mute,
			Default:     sink.SinkName == defaultID,
		})
	}
	return devices, nil
}

// SelectDevice resolves the configured sink preference against live sinks.
func SelectDevice(ctx context.Context, preferred string) (Selection, error) {
	devices, err := ListDevices(ctx)
	if err != nil {
		return Selection{}, err
	}
	return selectDeviceFromList(devices, preferred)
}

// selectDeviceFromList applies selection policy to a pre-fetched sink list.
// A named sink that is muted or unavailable falls back to the default sink.
func selectDeviceFromList(devices []Device, preferred string) (Selection, error) {
	if len(devices) == 0 {
		return Selection{}, errors.New("no audio output devices found")
	}

	var (
		defaultDevice *Device
		byName        *Device
	)

	preferred = strings.TrimSpace(strings.ToLower(preferred))
	wantsDefault := preferred == "" || preferred == "default"

	for i := range devices {
		dev := &devices[i]
		if dev.Default {
			defaultDevice = dev
		}
		if byName == nil && !wantsDefault && deviceMatches(*dev, preferred) {
			byName = dev
		}
	}

	if wantsDefault {
		if defaultDevice == nil {
			return Selection{}, errors.New("default audio sink is unavailable")
		}
		if !defaultDevice.Available {
			return Selection{}, fmt.Errorf("default audio sink %q is not available", defaultDevice.ID)
		}
		if defaultDevice.Muted {
			return Selection{}, fmt.Errorf("default audio sink %q is muted", defaultDevice.ID)
		}
		return Selection{Device: *defaultDevice}, nil
	}

	if byName == nil {
		return Selection{}, fmt.Errorf("speech.player.sink %q did not match any device", preferred)
	}
	if byName.Available && !byName.Muted {
		return Selection{Device: *byName}, nil
	}

	reason := "unavailable"
	if byName.Muted {
		reason = "muted"
	}
	if defaultDevice == nil || !defaultDevice.Available || defaultDevice.Muted {
		return Selection{}, fmt.Errorf("sink %q is %s and no usable default sink", byName.ID, reason)
	}

	return Selection{
		Device:   *defaultDevice,
		Warning:  fmt.Sprintf("speech.player.sink %q is %s; falling back to %q", byName.ID, reason, defaultDevice.ID),
		Fallback: byName.ID != defaultDevice.ID,
	}, nil
}

// deviceMatches reports whether a search term matches a device id or description.
func deviceMatches(device Device, term string) bool {
	if term == "" {
		return false
	}
	id := strings.ToLower(device.ID)
	desc := strings.ToLower(device.Description)
	return strings.Contains(id, term) || strings.Contains(desc, term)
}

// Format describes interleaved signed 16-bit PCM.
type Format struct {
	SampleRate int
	Channels   int
}

// Play streams samples to the sink named by sinkID (empty for default) and
// blocks until the stream drains.
func Play(ctx context.Context, sinkID string, format Format, samples []int16) error {
	if format.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", format.SampleRate)
	}
	channels, err := channelOption(format.Channels)
	if err != nil {
		return err
	}

	client, err := newClient()
	if err != nil {
		return err
	}
	defer client.Close()

	opts := []pulse.PlaybackOption{
		channels,
		pulse.PlaybackSampleRate(format.SampleRate),
		pulse.PlaybackLatency(0.05),
		pulse.PlaybackMediaName("talker speech"),
	}
	if sinkID != "" {
		sink, err := client.SinkByID(sinkID)
		if err != nil {
			return fmt.Errorf("resolve sink %q: %w", sinkID, err)
		}
		opts = append(opts, pulse.PlaybackSink(sink))
	}

	stream, err := client.NewPlayback(newSampleReader(ctx, samples), opts...)
	if err != nil {
		return fmt.Errorf("create pulse playback stream: %w", err)
	}
	defer stream.Close()

	stream.Start()
	stream.Drain()
	if err := stream.Error(); err != nil {
		return fmt.Errorf("play speech stream: %w", err)
	}
	return ctx.Err()
}

func channelOption(channels int) (pulse.PlaybackOption, error) {
	switch channels {
	case 1:
		return pulse.PlaybackMono, nil
	case 2:
		return pulse.PlaybackStereo, nil
	default:
		return nil, fmt.Errorf("unsupported channel count %d", channels)
	}
}

// newSampleReader feeds samples to Pulse and ends early once ctx is done.
func newSampleReader(ctx context.Context, samples []int16) pulse.Int16Reader {
	cursor := 0
	return pulse.Int16Reader(func(buf []int16) (int, error) {
		if ctx.Err() != nil || cursor >= len(samples) {
			return 0, pulse.EndOfData
		}

		n := copy(buf, samples[cursor:])
		cursor += n
		if cursor >= len(samples) {
			return n, pulse.EndOfData
		}
		return n, nil
	})
}

// sinkStateString maps Pulse sink state constants to human-readable values.
func sinkStateString(state uint32) string {
	switch state {
	case 0:
		return "running"
	case 1:
		return "idle"
	case 2:
		return "suspended"
	default:
		return fmt.Sprintf("unknown(%d)", state)
	}
}

// sinkAvailable maps Pulse sink port availability to a simple boolean.
func sinkAvailable(sink *pulseproto.GetSinkInfoReply) bool {
	if sink == nil {
		return false
	}
	if len(sink.Ports) == 0 {
		return true
	}
	for _, port := range sink.Ports {
		if port.Name != sink.ActivePortName {
			continue
		}
		// PulseAudio values: unknown=0, no=1, yes=2.
		return port.Available == 0 || port.Available == 2
	}
	return true
}
