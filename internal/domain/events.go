// Package domain defines events for the event-driven architecture.
// Events decouple the pipeline and playback services from hosts and persistence.
package domain

import (
	"time"
)

// Event is the base interface for all events in the system.
// All events must implement this interface to be published via the event bus.
type Event interface {
	// Type returns the event type identifier
	Type() EventType

	// Timestamp returns when the event occurred
	Timestamp() time.Time
}

// EventType is a string identifier for different event types.
type EventType string

// Event type constants define all possible events in the system.
const (
	// Visualizer events
	EventModeChanged    EventType = "viz.mode_changed"
	EventThemeChanged   EventType = "viz.theme_changed"
	EventRefreshChanged EventType = "viz.refresh_changed"
	EventTickSkipped    EventType = "viz.tick_skipped"

	// Playback events
	EventTrackLoaded  EventType = "track.loaded"
	EventTrackStarted EventType = "track.started"
	EventTrackPaused  EventType = "track.paused"
	EventTrackStopped EventType = "track.stopped"
	EventTrackError   EventType = "track.error"

	// Volume events
	EventVolumeChanged EventType = "volume.changed"
)

// EventHandler is a function that handles events.
type EventHandler func(event Event)

// SubscriptionID uniquely identifies an event subscription.
type SubscriptionID string

// baseEvent provides common event functionality.
// All concrete events should embed this struct.
type baseEvent struct {
	timestamp time.Time
}

// Timestamp returns when the event occurred.
func (e baseEvent) Timestamp() time.Time {
	return e.timestamp
}

// newBaseEvent creates a new base event with the current timestamp.
func newBaseEvent() baseEvent {
	return baseEvent{timestamp: time.Now()}
}

// ModeChangedEvent is published when the visualization mode changes.
type ModeChangedEvent struct {
	baseEvent
	Mode     VisualizationMode
	Previous VisualizationMode
}

// Type returns the event type.
func (e ModeChangedEvent) Type() EventType {
	return EventModeChanged
}

// NewModeChangedEvent creates a new ModeChangedEvent.
func NewModeChangedEvent(mode, previous VisualizationMode) ModeChangedEvent {
	return ModeChangedEvent{
		baseEvent: newBaseEvent(),
		Mode:      mode,
		Previous:  previous,
	}
}

// ThemeChangedEvent is published when the color theme changes.
type ThemeChangedEvent struct {
	baseEvent
	Theme ColorTheme
}

// Type returns the event type.
func (e ThemeChangedEvent) Type() EventType {
	return EventThemeChanged
}

// NewThemeChangedEvent creates a new ThemeChangedEvent.
func NewThemeChangedEvent(theme ColorTheme) ThemeChangedEvent {
	return ThemeChangedEvent{
		baseEvent: newBaseEvent(),
		Theme:     theme,
	}
}

// RefreshChangedEvent is published when the tick interval changes.
type RefreshChangedEvent struct {
	baseEvent
	Interval time.Duration
}

// Type returns the event type.
func (e RefreshChangedEvent) Type() EventType {
	return EventRefreshChanged
}

// NewRefreshChangedEvent creates a new RefreshChangedEvent.
func NewRefreshChangedEvent(interval time.Duration) RefreshChangedEvent {
	return RefreshChangedEvent{
		baseEvent: newBaseEvent(),
		Interval:  interval,
	}
}

// TickSkippedEvent is published when a tick is dropped because the previous one was still running.
type TickSkippedEvent struct {
	baseEvent
	Skipped uint64 // Total skipped ticks so far
}

// Type returns the event type.
func (e TickSkippedEvent) Type() EventType {
	return EventTickSkipped
}

// NewTickSkippedEvent creates a new TickSkippedEvent.
func NewTickSkippedEvent(skipped uint64) TickSkippedEvent {
	return TickSkippedEvent{
		baseEvent: newBaseEvent(),
		Skipped:   skipped,
	}
}

// TrackLoadedEvent is published when a track is successfully loaded.
type TrackLoadedEvent struct {
	baseEvent
	Track Track
}

// Type returns the event type.
func (e TrackLoadedEvent) Type() EventType {
	return EventTrackLoaded
}

// NewTrackLoadedEvent creates a new TrackLoadedEvent.
func NewTrackLoadedEvent(track Track) TrackLoadedEvent {
	return TrackLoadedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
	}
}

// TrackStartedEvent is published when playback starts or resumes.
type TrackStartedEvent struct {
	baseEvent
	Track Track
}

// Type returns the event type.
func (e TrackStartedEvent) Type() EventType {
	return EventTrackStarted
}

// NewTrackStartedEvent creates a new TrackStartedEvent.
func NewTrackStartedEvent(track Track) TrackStartedEvent {
	return TrackStartedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
	}
}

// TrackPausedEvent is published when playback is paused.
type TrackPausedEvent struct {
	baseEvent
	Track    Track
	Position time.Duration
}

// Type returns the event type.
func (e TrackPausedEvent) Type() EventType {
	return EventTrackPaused
}

// NewTrackPausedEvent creates a new TrackPausedEvent.
func NewTrackPausedEvent(track Track, position time.Duration) TrackPausedEvent {
	return TrackPausedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Position:  position,
	}
}

// TrackStoppedEvent is published when playback is stopped.
type TrackStoppedEvent struct {
	baseEvent
	Track Track
}

// Type returns the event type.
func (e TrackStoppedEvent) Type() EventType {
	return EventTrackStopped
}

// NewTrackStoppedEvent creates a new TrackStoppedEvent.
func NewTrackStoppedEvent(track Track) TrackStoppedEvent {
	return TrackStoppedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
	}
}

// TrackErrorEvent is published when an error occurs with a track.
type TrackErrorEvent struct {
	baseEvent
	Path  string
	Error error
}

// Type returns the event type.
func (e TrackErrorEvent) Type() EventType {
	return EventTrackError
}

// NewTrackErrorEvent creates a new TrackErrorEvent.
func NewTrackErrorEvent(path string, err error) TrackErrorEvent {
	return TrackErrorEvent{
		baseEvent: newBaseEvent(),
		Path:      path,
		Error:     err,
	}
}

// VolumeChangedEvent is published when the volume changes.
type VolumeChangedEvent struct {
	baseEvent
	Volume float64 // 0.0 to 1.0
}

// Type returns the event type.
func (e VolumeChangedEvent) Type() EventType {
	return EventVolumeChanged
}

// NewVolumeChangedEvent creates a new VolumeChangedEvent.
func NewVolumeChangedEvent(volume float64) VolumeChangedEvent {
	return VolumeChangedEvent{
		baseEvent: newBaseEvent(),
		Volume:    volume,
	}
}
