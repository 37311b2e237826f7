package api

import (
	"encoding/json"
	"errors"
	"syscall"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/open-teleop/rover-console/domain/drive"
	customlog "github.com/open-teleop/rover-console/pkg/log"
	"github.com/open-teleop/rover-console/pkg/projection"
)

// RegisterWebSocketRoutes registers the control and projection websockets.
func RegisterWebSocketRoutes(app *fiber.App, console ConsoleService, logger customlog.Logger) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/control", websocket.New(func(conn *websocket.Conn) {
		ControlWebSocketHandler(conn, console, logger)
	}))
	app.Get("/ws/projection", websocket.New(func(conn *websocket.Conn) {
		ProjectionWebSocketHandler(conn, console.Board(), logger)
	}))

	logger.Infof("Registered websocket endpoints under /ws")
}

// ControlWebSocketHandler reads input events from an operator view and feeds
// them to the console. When the socket drops, every source the view used is
// forgotten and one final Stop goes out, so a lost browser tab never leaves
// the rover driving.
func ControlWebSocketHandler(conn *websocket.Conn, console ConsoleService, logger customlog.Logger) {
	logger.Infof("Control WebSocket connected: %s", conn.RemoteAddr())
	seen := make(map[drive.Source]bool)

	for {
		mt, msg, err := conn.ReadMessage()
		if err != nil {
			logClose(logger, "Control", err)
			break
		}
		if mt != websocket.TextMessage {
			logger.Infof("Ignoring non-text Control WS message type: %d", mt)
			continue
		}

		var ev drive.Event
		if err := json.Unmarshal(msg, &ev); err != nil {
			logger.Warnf("Failed to unmarshal input event from WS: %v. Message: %s", err, string(msg))
			continue
		}
		if err := console.HandleInput(ev); err != nil {
			logger.Warnf("Rejected input event from WS: %v", err)
			continue
		}
		seen[ev.Source] = true
	}

	sources := make([]drive.Source, 0, len(seen))
	for source := range seen {
		sources = append(sources, source)
	}
	console.Disconnect(sources...)
	logger.Debugf("Sent final Stop after disconnect, released %d sources", len(sources))
	logger.Infof("Control WebSocket disconnected: %s", conn.RemoteAddr())
}

// ProjectionWebSocketHandler pushes every new board snapshot to a view until
// the view goes away.
func ProjectionWebSocketHandler(conn *websocket.Conn, board *projection.Board, logger customlog.Logger) {
	logger.Infof("Projection WebSocket connected: %s", conn.RemoteAddr())
	updates, cancel := board.Subscribe()
	defer cancel()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				logClose(logger, "Projection", err)
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			logger.Infof("Projection WebSocket disconnected: %s", conn.RemoteAddr())
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(snap); err != nil {
				logger.Infof("Projection WS write failed: %v", err)
				return
			}
		}
	}
}

func logClose(logger customlog.Logger, name string, err error) {
	if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
		logger.Errorf("%s WS read error: %v", name, err)
		return
	}
	if errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET) {
		logger.Infof("%s WS connection closed normally.", name)
		return
	}
	logger.Infof("%s WS connection closed: %v", name, err)
}
