package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bogem/id3v2/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sv4u/audiodl/download/config"
	"github.com/sv4u/audiodl/download/logging"
)

func TestMain(m *testing.M) {
	logging.Init(logging.FormatText, io.Discard)
	os.Exit(m.Run())
}

func TestRunVersion(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"version"}, &stdout, &stderr)

	assert.Equal(t, ExitOK, code)
	assert.Equal(t, "audiodl version dev\n", stdout.String())
}

func TestRunNoArgsPrintsUsage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(nil, &stdout, &stderr)

	assert.Equal(t, ExitUsage, code)
	for _, want := range []string{"audiodl", "USAGE", "COMMANDS", "serve", "inspect", "version"} {
		assert.Contains(t, stderr.String(), want)
	}
}

func TestRunUnknownCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"bogus"}, &stdout, &stderr)

	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, stderr.String(), "Unknown command: bogus")
}

func TestServeInvalidConfigExits(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"serve", "--config", filepath.Join(t.TempDir(), "nonexistent.yaml")}, &stdout, &stderr)

	assert.Equal(t, ExitConfigError, code)
	assert.Contains(t, stderr.String(), "Failed to load config")
}

func TestServeBadFlag(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"serve", "--nope"}, &stdout, &stderr)
	assert.Equal(t, ExitUsage, code)
}

func TestInspect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.mp3")
	tag := id3v2.NewEmptyTag()
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.SetArtist("Art")
	tag.SetAlbum("Alb")
	tag.SetTitle("Song")

	var buf bytes.Buffer
	_, err := tag.WriteTo(&buf)
	require.NoError(t, err)
	buf.Write([]byte{0xff, 0xfb, 0x90, 0x64, 0x00, 0x00, 0x00, 0x00})
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	var stdout, stderr bytes.Buffer
	code := run([]string{"inspect", path}, &stdout, &stderr)
	require.Equal(t, ExitOK, code, stderr.String())

	var tags map[string]interface{}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &tags))
	assert.Equal(t, "Art", tags["artist"])
	assert.Equal(t, "Alb", tags["album"])
	assert.Equal(t, "Song", tags["title"])
	assert.Equal(t, false, tags["has_cover"])
}

func TestInspectErrors(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, ExitUsage, run([]string{"inspect"}, &stdout, &stderr))
	assert.Equal(t, ExitError, run([]string{"inspect", filepath.Join(t.TempDir(), "missing.mp3")}, &stdout, &stderr))
}

func TestBuildServer(t *testing.T) {
	cfg := &config.Config{}
	cfg.SetDefaults()
	cfg.Workspace.Root = filepath.Join(t.TempDir(), "ws")
	cfg.Extract.Binary = "yt-dlp-not-installed-for-tests"

	server, err := buildServer(cfg)
	require.NoError(t, err)
	assert.Equal(t, ":8080", server.httpServer.Addr)
	assert.Equal(t, cfg.Extract.Timeout+time.Minute, server.httpServer.WriteTimeout)
	assert.DirExists(t, cfg.Workspace.Root)
}
