package recipients

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedReader blocks its first Read until release is closed.
type gatedReader struct {
	started chan struct{}
	release chan struct{}
	r       *strings.Reader
	once    bool
}

func newGatedReader(body string) *gatedReader {
	return &gatedReader{
		started: make(chan struct{}),
		release: make(chan struct{}),
		r:       strings.NewReader(body),
	}
}

func (g *gatedReader) Read(p []byte) (int, error) {
	if !g.once {
		g.once = true
		close(g.started)
		<-g.release
	}
	return g.r.Read(p)
}

func TestLoader_StoresLatestResult(t *testing.T) {
	l := NewLoader(DefaultOptions())

	list, err := l.Load(context.Background(), NewUploadedFile("a.csv", TypeCSV, []byte("a@x.com\nb@x.com\n")))
	require.NoError(t, err)
	assert.Equal(t, RecipientList{"a@x.com", "b@x.com"}, list)

	cur := l.Current()
	assert.Equal(t, "a.csv", cur.Source)
	assert.Equal(t, RecipientList{"a@x.com", "b@x.com"}, cur.Recipients)
	assert.False(t, cur.LoadedAt.IsZero())

	cur.Recipients[0] = "mutated@x.com"
	assert.Equal(t, "a@x.com", l.Current().Recipients[0], "Current must return a copy")
}

func TestLoader_FailedLoadKeepsPreviousList(t *testing.T) {
	l := NewLoader(DefaultOptions())
	_, err := l.Load(context.Background(), NewUploadedFile("a.csv", TypeCSV, []byte("a@x.com\n")))
	require.NoError(t, err)

	_, err = l.Load(context.Background(), NewUploadedFile("doc.pdf", "application/pdf", []byte("%PDF")))
	require.ErrorIs(t, err, ErrUnsupportedFileType)

	_, err = l.Load(context.Background(), NewUploadedFile("bad.xlsx", TypeXLSX, []byte("garbage")))
	require.ErrorIs(t, err, ErrParse)

	cur := l.Current()
	assert.Equal(t, "a.csv", cur.Source)
	assert.Equal(t, RecipientList{"a@x.com"}, cur.Recipients)
}

func TestLoader_NewerLoadSupersedesInFlight(t *testing.T) {
	l := NewLoader(DefaultOptions())
	slow := newGatedReader("old@x.com\n")

	done := make(chan error, 1)
	go func() {
		_, err := l.Load(context.Background(), UploadedFile{Name: "old.csv", DeclaredType: TypeCSV, Body: slow})
		done <- err
	}()

	select {
	case <-slow.started:
	case <-time.After(2 * time.Second):
		t.Fatal("first load never started reading")
	}

	list, err := l.Load(context.Background(), NewUploadedFile("new.csv", TypeCSV, []byte("new@x.com\n")))
	require.NoError(t, err)
	assert.Equal(t, RecipientList{"new@x.com"}, list)

	close(slow.release)
	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrSuperseded)
	case <-time.After(2 * time.Second):
		t.Fatal("superseded load did not return")
	}

	assert.Equal(t, "new.csv", l.Current().Source)
}

func TestLoader_SupersedeDiscardsInFlightAndKeepsList(t *testing.T) {
	l := NewLoader(DefaultOptions())
	_, err := l.Load(context.Background(), NewUploadedFile("a.csv", TypeCSV, []byte("a@x.com\n")))
	require.NoError(t, err)

	slow := newGatedReader("old@x.com\n")
	done := make(chan error, 1)
	go func() {
		_, err := l.Load(context.Background(), UploadedFile{Name: "old.csv", DeclaredType: TypeCSV, Body: slow})
		done <- err
	}()
	<-slow.started

	l.Supersede()
	close(slow.release)

	assert.ErrorIs(t, <-done, ErrSuperseded)
	cur := l.Current()
	assert.Equal(t, "a.csv", cur.Source)
	assert.Equal(t, RecipientList{"a@x.com"}, cur.Recipients)
}

func TestLoader_CloseDiscardsInFlight(t *testing.T) {
	l := NewLoader(DefaultOptions())
	slow := newGatedReader("late@x.com\n")

	done := make(chan error, 1)
	go func() {
		_, err := l.Load(context.Background(), UploadedFile{Name: "late.csv", DeclaredType: TypeCSV, Body: slow})
		done <- err
	}()
	<-slow.started

	l.Close()
	close(slow.release)

	assert.ErrorIs(t, <-done, ErrLoaderClosed)
	assert.Empty(t, l.Current().Recipients)

	_, err := l.Load(context.Background(), NewUploadedFile("a.csv", TypeCSV, []byte("a@x.com\n")))
	assert.ErrorIs(t, err, ErrLoaderClosed)
}

func TestLoader_Clear(t *testing.T) {
	l := NewLoader(DefaultOptions())
	_, err := l.Load(context.Background(), NewUploadedFile("a.csv", TypeCSV, []byte("a@x.com\n")))
	require.NoError(t, err)

	l.Clear()
	assert.Equal(t, Loaded{}, l.Current())
}
