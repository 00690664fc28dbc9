package cmd

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rubiojr/aurosearch/cmd/web/components"
	"github.com/rubiojr/aurosearch/pkg/filters"
	"github.com/rubiojr/aurosearch/pkg/query"
	"github.com/rubiojr/aurosearch/pkg/realtime"
	"github.com/rubiojr/aurosearch/pkg/session"
)

const (
	liveWriteWait  = 10 * time.Second
	livePongWait   = 60 * time.Second
	livePingPeriod = 50 * time.Second
	liveMaxMessage = 4096
)

// liveRequest is a message sent by the browser. search and filters carry
// the whole filter form; page carries only Page.
type liveRequest struct {
	Type       string `json:"type"`
	Query      string `json:"query"`
	Author     string `json:"author"`
	Group      string `json:"group"`
	BookTitle  string `json:"book_title"`
	SearchType string `json:"search_type"`
	Page       int    `json:"page"`
}

func (m liveRequest) selection() filters.Selection {
	st, err := filters.ParseSearchType(m.SearchType)
	if err != nil {
		st = filters.SearchAll
	}
	return filters.Selection{
		Author:     m.Author,
		Group:      m.Group,
		BookTitle:  m.BookTitle,
		SearchType: st,
	}
}

// liveState is pushed after every change of the session's view.
type liveState struct {
	Type           string            `json:"type"`
	Token          uint64            `json:"token"`
	Query          string            `json:"query"`
	Selection      filters.Selection `json:"selection"`
	Loading        bool              `json:"loading"`
	Error          string            `json:"error,omitempty"`
	Page           int               `json:"page"`
	TotalPages     int               `json:"total_pages"`
	Total          int               `json:"total"`
	HTML           string            `json:"html"`
	BookTitles     []string          `json:"book_titles"`
	BookTitlesHTML string            `json:"book_titles_html"`
}

// liveActivity announces a search completed by any session.
type liveActivity struct {
	Type   string               `json:"type"`
	Search realtime.SearchEvent `json:"search"`
}

// handleLive upgrades to a websocket bound to the browser's session. Input
// from the browser drives the session; every state change is pushed back as
// rendered HTML.
func (s *WebServer) handleLive(w http.ResponseWriter, r *http.Request) {
	sess, cookie := s.sessions.Resolve(r)
	var header http.Header
	if cookie != nil {
		header = http.Header{"Set-Cookie": {cookie.String()}}
	}

	conn, err := s.upgrader.Upgrade(w, r, header)
	if err != nil {
		webLog.Warnf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	s.metrics.LiveConnected(1)
	defer s.metrics.LiveConnected(-1)

	// Only the latest state matters, older undelivered ones are replaced.
	updates := make(chan query.State, 1)
	remove := sess.Query.OnChange(func(st query.State) {
		for {
			select {
			case updates <- st:
				return
			default:
			}
			select {
			case <-updates:
			default:
			}
		}
	})
	defer remove()

	hubID, events := s.hub.Register()
	defer s.hub.Unregister(hubID)

	refresh := make(chan struct{}, 1)
	done := make(chan struct{})
	go s.readLive(conn, sess, refresh, done)

	ctx := r.Context()
	if err := s.writeLiveState(ctx, conn, sess, sess.Query.Snapshot()); err != nil {
		return
	}

	ticker := time.NewTicker(livePingPeriod)
	defer ticker.Stop()

	for {
		var err error
		select {
		case <-done:
			return
		case st := <-updates:
			err = s.writeLiveState(ctx, conn, sess, st)
		case <-refresh:
			err = s.writeLiveState(ctx, conn, sess, sess.Query.Snapshot())
		case ev, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			err = conn.WriteJSON(liveActivity{Type: "activity", Search: ev})
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			err = conn.WriteMessage(websocket.PingMessage, nil)
		}
		if err != nil {
			webLog.Debugf("live session %s closed: %v", sess.ID, err)
			return
		}
	}
}

// readLive applies browser messages to the session until the connection
// fails, then closes done.
func (s *WebServer) readLive(conn *websocket.Conn, sess *session.Session, refresh chan<- struct{}, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(liveMaxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(livePongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(livePongWait))
	})

	for {
		var msg liveRequest
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				webLog.Debugf("live read: %v", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(livePongWait))

		switch msg.Type {
		case "search":
			sel := sess.Filters.Apply(msg.selection())
			sess.Query.Submit(msg.Query, sel)
		case "filters":
			sess.Filters.Apply(msg.selection())
			select {
			case refresh <- struct{}{}:
			default:
			}
		case "page":
			sess.Query.GoToPage(msg.Page)
		default:
			webLog.Debugf("ignoring live message type %q", msg.Type)
		}
	}
}

func (s *WebServer) writeLiveState(ctx context.Context, conn *websocket.Conn, sess *session.Session, st query.State) error {
	data := s.pageData(ctx, sess, st)

	html, err := components.RenderString(ctx, s.components.Results(data))
	if err != nil {
		webLog.Errorf("rendering live results: %v", err)
		return err
	}
	titles, err := components.RenderString(ctx, s.components.BookTitleOptions(data))
	if err != nil {
		webLog.Errorf("rendering book titles: %v", err)
		return err
	}

	_ = conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
	return conn.WriteJSON(liveState{
		Type:           "state",
		Token:          st.Token,
		Query:          st.Query,
		Selection:      data.Selection,
		Loading:        st.Loading,
		Error:          st.Err,
		Page:           st.Page,
		TotalPages:     st.TotalPages,
		Total:          st.Total,
		HTML:           html,
		BookTitles:     data.BookTitles,
		BookTitlesHTML: titles,
	})
}
