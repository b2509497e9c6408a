package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/PixelSam123/wordgames-client/internal/engine"
	"github.com/PixelSam123/wordgames-client/internal/session"
)

const connectTimeout = 10 * time.Second

const help = `commands:
  /connect          connect to the current address
  /disconnect       leave the game
  /address <url>    change and save the server address
  /notices          list notices
  /dismiss <n>      dismiss notice n
  /quit             exit
anything else is sent as a guess or chat line`

// shell is the terminal presentation of a Session. Only loop's goroutine
// touches it.
type shell struct {
	sess *session.Session
	out  io.Writer

	shownMessages int
	shownNotices  int
	status        string
}

func newShell(sess *session.Session, out io.Writer) *shell {
	return &shell{sess: sess, out: out}
}

func (s *shell) loop(ctx context.Context, tick time.Duration, lines <-chan string, wake <-chan struct{}) error {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	defer s.close()

	fmt.Fprintf(s.out, "server: %s\n%s\n", s.sess.Address(), help)
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok || s.handle(ctx, line) {
				return nil
			}
		case <-wake:
		case <-ticker.C:
		}
		s.sess.Tick()
		s.render(time.Now())
	}
}

// close disconnects and gives the bridge a moment to flush queued sends.
func (s *shell) close() {
	s.sess.Disconnect()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = s.sess.Wait(ctx)
	fmt.Fprintln(s.out)
}

// handle runs one input line and reports whether the user asked to quit.
func (s *shell) handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		_ = s.sess.Send(line)
		return false
	}

	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch name {
	case "/quit":
		return true
	case "/connect":
		cctx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		if err := s.sess.Connect(cctx); err == nil {
			s.println("connected to " + s.sess.Address())
		} else if errors.Is(err, session.ErrAlreadyConnected) {
			s.println("already connected")
		}
	case "/disconnect":
		s.sess.Disconnect()
		s.println("disconnected")
	case "/address":
		if arg == "" {
			s.println("server: " + s.sess.Address())
			break
		}
		switch err := s.sess.SetAddress(ctx, arg); {
		case err == nil:
			s.println("server: " + arg)
		case errors.Is(err, session.ErrAlreadyConnected):
			s.println("disconnect before changing the server")
		}
	case "/notices":
		for i, n := range s.sess.Notices() {
			s.println(fmt.Sprintf("[%d] %s %s", i, n.At.Format(time.TimeOnly), n.Text))
		}
	case "/dismiss":
		i, err := strconv.Atoi(arg)
		if err != nil || s.sess.DismissNotice(i) != nil {
			s.println("no such notice: " + arg)
			break
		}
		s.shownNotices = len(s.sess.Notices())
	default:
		s.println(help)
	}
	return false
}

// render prints what changed since the last call: new chat lines, new
// notices and the round status line.
func (s *shell) render(now time.Time) {
	msgs := s.sess.Messages()
	if fresh := s.sess.Received() - s.shownMessages; fresh > 0 {
		for _, m := range msgs[max(0, len(msgs)-fresh):] {
			s.println(m)
		}
		s.shownMessages = s.sess.Received()
	}

	notices := s.sess.Notices()
	if len(notices) > s.shownNotices {
		for i, n := range notices[s.shownNotices:] {
			s.println(fmt.Sprintf("! [%d] %s", s.shownNotices+i, n.Text))
		}
	}
	s.shownNotices = len(notices)

	if status := statusLine(s.sess.View(now)); status != s.status {
		s.status = status
		fmt.Fprintf(s.out, "\r\033[K%s", status)
	}
}

func (s *shell) println(text string) {
	fmt.Fprintf(s.out, "\r\033[K%s\n", text)
	if s.status != "" {
		fmt.Fprint(s.out, s.status)
	}
}

func statusLine(d engine.Display) string {
	if d.Word == "" {
		return d.Line()
	}
	return d.Line() + "  " + d.Word
}
