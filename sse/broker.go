/*
The MIT License (MIT)

Copyright (c) 2017-2021 Ismael Celis and contributors

Permission is hereby granted, free of charge, to any person obtaining a copy of
this software and associated documentation files (the "Software"), to deal in
the Software without restriction, including without limitation the rights to
use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of
the Software, and to permit persons to whom the Software is furnished to do so,
subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS
FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
*/

package sse

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/computersciencehouse/quickpoll/logging"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const patience time.Duration = time.Second * 1

var ErrClosed = errors.New("sse: broker closed")

type (
	NotificationEvent struct {
		EventName string
		Payload   interface{}
	}

	NotifierChan chan NotificationEvent

	Broker struct {

		// Events are pushed to this channel by Publish
		notifier NotifierChan

		// New client connections
		newClients chan NotifierChan

		// Closed client connections
		closingClients chan NotifierChan

		// Client connections registry, owned by Listen
		clients map[NotifierChan]struct{}

		// Closed when Listen returns
		done chan struct{}
	}
)

func NewBroker() (broker *Broker) {
	// Instantiate a broker
	return &Broker{
		notifier:       make(NotifierChan, 1),
		newClients:     make(chan NotifierChan),
		closingClients: make(chan NotifierChan),
		clients:        make(map[NotifierChan]struct{}),
		done:           make(chan struct{}),
	}
}

// Publish hands the event to the broker. It gives up when ctx ends or the broker stops.
func (broker *Broker) Publish(ctx context.Context, event NotificationEvent) error {
	select {
	case broker.notifier <- event:
		return nil
	case <-broker.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ServeHTTP streams the events whose name matches the :topic path parameter.
func (broker *Broker) ServeHTTP(c *gin.Context) {
	eventName := c.Param("topic")

	// Each connection registers its own message channel with the Broker's connections registry
	messageChan := make(NotifierChan)

	// Signal the broker that we have a new connection
	select {
	case broker.newClients <- messageChan:
	case <-broker.done:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "event stream unavailable"})
		return
	case <-c.Request.Context().Done():
		return
	}

	// Remove this client from the map of connected clients
	// when this handler exits.
	defer func() {
		select {
		case broker.closingClients <- messageChan:
		case <-broker.done:
		}
	}()

	// Send headers right away so subscribers see the stream open before the first event.
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case event := <-messageChan:
			if event.EventName == eventName {
				c.SSEvent(event.EventName, event.Payload)
			}
			return true
		case <-c.Request.Context().Done():
			return false
		case <-broker.done:
			return false
		}
	})
}

// Listen for new notifications and redistribute them to clients until ctx ends
func (broker *Broker) Listen(ctx context.Context) {
	defer close(broker.done)

	log := logging.Logger.WithFields(logrus.Fields{"module": "sse", "method": "Listen"})

	for {
		select {
		case <-ctx.Done():
			log.WithField("clients", len(broker.clients)).Info("broker stopped")
			return
		case s := <-broker.newClients:

			// A new client has connected.
			// Register their message channel
			broker.clients[s] = struct{}{}
			log.Debugf("client added, %d registered clients", len(broker.clients))
		case s := <-broker.closingClients:

			// A client has detached and we want to
			// stop sending them messages.
			delete(broker.clients, s)
			log.Debugf("removed client, %d registered clients", len(broker.clients))
		case event := <-broker.notifier:

			// Send event to all connected clients
			for clientMessageChan := range broker.clients {
				select {
				case clientMessageChan <- event:
				case <-time.After(patience):
					log.WithField("event", event.EventName).Warn("skipping slow client")
				}
			}
		}
	}
}
