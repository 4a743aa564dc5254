package frame

import (
	"strings"
	"testing"

	ircerr "fifoirc/internal/errors"
)

func TestBuilder_HeaderAndPayload(t *testing.T) {
	b := New(DefaultCapacity)
	if err := b.WriteHeader("PRIVMSG #test :"); err != nil {
		t.Fatal(err)
	}
	if n := b.WriteTruncated("hi there"); n != 8 {
		t.Errorf("wrote %d bytes, want 8", n)
	}
	if got := b.String(); got != "PRIVMSG #test :hi there" {
		t.Errorf("got %q", got)
	}
}

func TestBuilder_TruncatesToCapacity(t *testing.T) {
	b := New(DefaultCapacity)
	header := "PRIVMSG #test :"
	if err := b.WriteHeader(header); err != nil {
		t.Fatal(err)
	}
	if got, want := b.Remaining(), DefaultCapacity-len(header); got != want {
		t.Errorf("Remaining = %d, want %d", got, want)
	}

	b.WriteTruncated(strings.Repeat("x", 2000))

	if b.Len() != DefaultCapacity-1 {
		t.Errorf("Len = %d, want %d", b.Len(), DefaultCapacity-1)
	}
	if wire := b.Len() + len("\r\n"); wire > WireLimit {
		t.Errorf("frame on the wire is %d bytes, limit %d", wire, WireLimit)
	}
	if b.WriteTruncated("more") != 0 {
		t.Error("full frame accepted more payload")
	}
}

func TestBuilder_HeaderTooLong(t *testing.T) {
	b := New(16)
	err := b.WriteHeader("PRIVMSG #a-very-long-channel :")
	if !ircerr.Is(err, ircerr.ErrFrameFull) {
		t.Fatalf("err = %v, want ErrFrameFull", err)
	}
	if b.Len() != 0 {
		t.Errorf("rejected header left %d bytes behind", b.Len())
	}
}

func TestBuilder_HeaderMustLeavePayloadRoom(t *testing.T) {
	b := New(10)
	if err := b.WriteHeader("123456789"); err == nil {
		t.Error("header filling the whole frame should be rejected")
	}
	if err := b.WriteHeader("12345678"); err != nil {
		t.Errorf("header leaving one payload byte rejected: %v", err)
	}
	if n := b.WriteTruncated("abc"); n != 1 {
		t.Errorf("wrote %d, want 1", n)
	}
}
