package printer

import (
	"bytes"
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentPairFitsWidth(t *testing.T) {
	doc := NewDocument(Width58mm)
	doc.Pair("Subtotal", "Rp 20.000")

	out := doc.Bytes()
	require.True(t, bytes.HasPrefix(out, []byte{esc, '@'}))
	line := string(bytes.TrimSuffix(out[2:], []byte{lf}))
	assert.Len(t, []rune(line), Width58mm)
	assert.True(t, bytes.HasSuffix([]byte(line), []byte("Rp 20.000")))
}

func TestDocumentPairTruncatesLongLabels(t *testing.T) {
	doc := NewDocument(20)
	doc.Pair("Kopi Gula Aren Extra Shot", "Rp 35.000")

	line := string(bytes.TrimSuffix(doc.Bytes()[2:], []byte{lf}))
	assert.Len(t, []rune(line), 20)
	assert.Equal(t, "Kopi Gula  Rp 35.000", line)
}

func TestWrap(t *testing.T) {
	assert.Equal(t, []string{"short"}, wrap("short", 10))
	assert.Equal(t, []string{"Es Kopi", "Susu Gula", "Aren"}, wrap("Es Kopi Susu Gula Aren", 9))
	assert.Equal(t, []string{"abcd", "efgh", "ij"}, wrap("abcdefghij", 4))
	assert.Equal(t, []string{"Café", "Crème"}, wrap("Café Crème", 5))
}

func TestDocumentCut(t *testing.T) {
	full := NewDocument(0).Cut(false).Bytes()
	assert.True(t, bytes.HasSuffix(full, []byte{gs, 'V', 0x00}))

	partial := NewDocument(0).Cut(true).Bytes()
	assert.True(t, bytes.HasSuffix(partial, []byte{lf, lf, lf, gs, 'V', 0x01}))
}

func TestNew(t *testing.T) {
	p, err := New("", "", "")
	require.NoError(t, err)
	assert.Equal(t, "none", p.Kind())
	assert.ErrorIs(t, p.Print(context.Background(), []byte("x")), ErrNoPrinter)

	_, err = New("usb", "", "")
	assert.Error(t, err)
	_, err = New("network", "", "")
	assert.Error(t, err)
	_, err = New("bluetooth", "", "")
	assert.Error(t, err)
}

func TestDevicePrinterWritesJob(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lp0")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	p, err := New("usb", path, "")
	require.NoError(t, err)
	assert.True(t, p.Ready(context.Background()))

	job := NewDocument(Width58mm).Line("hello").Bytes()
	require.NoError(t, p.Print(context.Background(), job))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, job, got)
}

func TestNetworkPrinterWritesJob(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	received := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		data, _ := io.ReadAll(conn)
		received <- data
	}()

	p, err := New("network", "", ln.Addr().String())
	require.NoError(t, err)

	job := NewDocument(Width80mm).Line("struk").Cut(true).Bytes()
	require.NoError(t, p.Print(context.Background(), job))
	assert.Equal(t, job, <-received)
}
