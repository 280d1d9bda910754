package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/coursehub/course-online-server/internal/model"
	ws "github.com/coursehub/course-online-server/internal/websocket"
)

// Follow opens the course event stream. Browsers cannot set headers on an
// upgrade, so the server takes the token from the query string; the client
// does the same. The returned channel closes when ctx is done, the server
// closes the stream, or the course is deleted.
func (c *Client) Follow(ctx context.Context, courseID int) (<-chan model.CourseEvent, error) {
	streamURL, err := c.streamURL(courseID)
	if err != nil {
		return nil, err
	}

	conn, resp, err := c.dialer.DialContext(ctx, streamURL, nil)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			return nil, decodeDialError(resp)
		}
		return nil, fmt.Errorf("dial stream: %w", err)
	}

	var ready ws.ReadyResponse
	if err := conn.ReadJSON(&ready); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("read ready: %w", err)
	}
	if ready.Event != ws.EventReady {
		_ = conn.Close()
		return nil, fmt.Errorf("unexpected first event %q", ready.Event)
	}

	out := make(chan model.CourseEvent)
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		_ = conn.Close()
	}()
	go func() {
		defer close(out)
		defer close(done)
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg ws.CourseEventResponse
			if err := json.Unmarshal(raw, &msg); err != nil || msg.Event != ws.EventCourse {
				continue
			}
			select {
			case out <- msg.Data:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (c *Client) streamURL(courseID int) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + fmt.Sprintf("/ws/v1/courses/%d/stream", courseID)

	q := u.Query()
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			q.Set("token", token)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// decodeDialError turns a rejected upgrade into an APIError.
func decodeDialError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err == nil && env.Error != nil {
		apiErr.Code = env.Error.Code
		apiErr.Message = env.Error.Message
	}
	if apiErr.Status == 0 {
		return errors.New("stream rejected")
	}
	return apiErr
}
