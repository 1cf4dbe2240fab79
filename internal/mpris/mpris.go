// Package mpris exposes the coordinator on the session bus as an MPRIS media
// player, so desktop media keys and applets can drive it.
package mpris

import (
	"github.com/diamondburned/mirage/internal/state"
	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/godbus/dbus/v5/prop"
	"github.com/pkg/errors"
)

const (
	miragePath = "/com/github/diamondburned/mirage"
	tracksPath = miragePath + "/Tracks"

	mprisPath = "/org/mpris/MediaPlayer2"

	introspectID = "org.freedesktop.DBus.Introspectable"
	mprisID      = "org.mpris.MediaPlayer2"
	playerID     = mprisID + ".Player"
	mirageID     = mprisID + ".mirage"
)

// Conn is a single MPRIS DBus connection.
type Conn struct {
	conn   *dbus.Conn
	props  *prop.Properties
	player *player
}

// New creates a new MPRIS connection. Calls from the bus reach the state
// through idleAdd; Update must be called on every state change.
func New(s *state.State, idleAdd func(func())) (*Conn, error) {
	c, err := newConn(s, idleAdd)
	if err == nil {
		return c, nil
	}

	c.Close()
	return nil, err
}

func newConn(s *state.State, idleAdd func(func())) (*Conn, error) {
	bus, err := dbus.SessionBus()
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to session bus")
	}

	player := newPlayer(s, idleAdd)

	props := map[string]map[string]*prop.Prop{
		mprisID:  rootProps,
		playerID: player.props(),
	}

	p, err := prop.Export(bus, mprisPath, props)
	if err != nil {
		bus.Close()
		return nil, errors.Wrap(err, "failed to create DBus properties")
	}

	conn := Conn{
		conn:   bus,
		props:  p,
		player: player,
	}

	if err := bus.Export(root{}, mprisPath, mprisID); err != nil {
		return &conn, errors.Wrap(err, "failed to export the MPRIS root")
	}

	if err := bus.Export(player, mprisPath, playerID); err != nil {
		return &conn, errors.Wrap(err, "failed to export the MPRIS Player")
	}

	if err := bus.Export(introspectionXML, mprisPath, introspectID); err != nil {
		return &conn, errors.Wrap(err, "failed to export introspection.xml")
	}

	reply, err := bus.RequestName(mirageID, dbus.NameFlagDoNotQueue)
	if err != nil {
		return &conn, errors.Wrap(err, "failed to request name")
	}

	if reply != dbus.RequestNameReplyPrimaryOwner {
		return &conn, errors.New("requested name is not primary, name already taken")
	}

	return &conn, nil
}

// Close closes the current DBus connection. If c is nil, then Close returns
// nil.
func (c *Conn) Close() error {
	if c == nil {
		return nil
	}

	return c.conn.Close()
}

// Update signals to MPRIS to update the properties from state. It must be
// called in the main loop.
func (c *Conn) Update(s *state.State) {
	c.player.update(c.props, s)
}

const introspectionXML introspect.Introspectable = `
<node>
	<interface name="org.mpris.MediaPlayer2">
		<method name="Raise">
		</method>
		<method name="Quit">
		</method>
		<property name="CanQuit" type="b" access="read"/>
		<property name="CanRaise" type="b" access="read"/>
		<property name="HasTrackList" type="b" access="read"/>
		<property name="Identity" type="s" access="read"/>
		<property name="SupportedUriSchemes" type="as" access="read"/>
		<property name="SupportedMimeTypes" type="as" access="read"/>
	</interface>
	<interface name="org.mpris.MediaPlayer2.Player">
		<method name="Next">
		</method>
		<method name="Previous">
		</method>
		<method name="Pause">
		</method>
		<method name="PlayPause">
		</method>
		<method name="Stop">
		</method>
		<method name="Play">
		</method>
		<method name="Seek">
			<arg type="x" name="Offset" direction="in"/>
		</method>
		<method name="SetPosition">
			<arg type="o" name="TrackId" direction="in"/>
			<arg type="x" name="Offset" direction="in"/>
		</method>
		<method name="OpenUri">
			<arg type="s" name="Uri" direction="in"/>
		</method>
		<signal name="Seeked">
			<arg type="x" name="Position" direction="out"/>
		</signal>
		<property name="PlaybackStatus" type="s" access="read"/>
		<property name="LoopStatus" type="s" access="readwrite"/>
		<property name="Rate" type="d" access="readwrite"/>
		<property name="Shuffle" type="b" access="readwrite"/>
		<property name="Metadata" type="a{sv}" access="read"/>
		<property name="Volume" type="d" access="readwrite"/>
		<property name="Position" type="x" access="read"/>
		<property name="MinimumRate" type="d" access="read"/>
		<property name="MaximumRate" type="d" access="read"/>
		<property name="CanGoNext" type="b" access="read"/>
		<property name="CanGoPrevious" type="b" access="read"/>
		<property name="CanPlay" type="b" access="read"/>
		<property name="CanPause" type="b" access="read"/>
		<property name="CanSeek" type="b" access="read"/>
		<property name="CanControl" type="b" access="read"/>
	</interface>
</node>
`
