package services_test

import (
	"context"
	"errors"

	"github.com/benmeehan/envnode/internal/mocks"
)

// scriptedLink fails the first failures Attach calls, then comes up.
type scriptedLink struct {
	failures int
	attaches int
	up       bool

	// session, when set, records how many session connects happened
	// before each attach.
	session          *mocks.FakeSession
	connectsAtAttach []int
}

func (l *scriptedLink) Connected() bool { return l.up }

func (l *scriptedLink) Attach(context.Context) error {
	l.attaches++
	if l.session != nil {
		l.connectsAtAttach = append(l.connectsAtAttach, l.session.ConnectCalls)
	}
	if l.attaches <= l.failures {
		return errors.New("no access point")
	}
	l.up = true
	return nil
}

func (l *scriptedLink) Name() string { return "test" }

// lateConnectSession reports a timeout on its first Connect but the session
// comes up anyway. Later connects fail while the session is up, as paho's do.
type lateConnectSession struct {
	*mocks.FakeSession
	onTimeout func()
}

func (s *lateConnectSession) Connect(ctx context.Context) error {
	if s.ConnectCalls == 0 {
		s.ConnectCalls++
		s.Connected = true
		if s.onTimeout != nil {
			s.onTimeout()
		}
		return errors.New("connect to tcp://fake:1883 timed out after 5s")
	}
	if s.IsConnected() {
		s.ConnectCalls++
		return errors.New("already connected or reconnecting")
	}
	return s.FakeSession.Connect(ctx)
}
