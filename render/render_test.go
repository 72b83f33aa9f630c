package render

import (
	"os"
	"strings"
	"testing"

	"github.com/livepeer/catalyst-api/video"
)

func TestVTTToSRTConvertsTimestampsAndRenumbers(t *testing.T) {
	vtt := "WEBVTT\n\n00:00:00.000 --> 00:00:01.200\nHello there\n\n00:00:01.200 --> 00:00:02.400\nSecond cue\n"
	got := vttToSRT(vtt)
	want := "1\n00:00:00,000 --> 00:00:01,200\nHello there\n2\n00:00:01,200 --> 00:00:02,400\nSecond cue\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestVTTToSRTSkipsNotesAndHeader(t *testing.T) {
	vtt := "WEBVTT\nNOTE this is a comment\n\n00:00:00.500 --> 00:00:01.000\nHi\n"
	got := vttToSRT(vtt)
	want := "1\n00:00:00,500 --> 00:00:01,000\nHi\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestLocksTryAcquireAndRelease(t *testing.T) {
	l := newLocks()
	if !l.TryAcquire("job-1") {
		t.Fatal("expected first acquire to succeed")
	}
	if l.TryAcquire("job-1") {
		t.Fatal("expected second acquire on same id to fail while held")
	}
	l.Release("job-1")
	if !l.TryAcquire("job-1") {
		t.Fatal("expected acquire to succeed again after release")
	}
}

func TestWriteConcatManifestUsesSceneDurations(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/concat.txt"
	scenes := []video.Scene{{DurationSeconds: 2.5}, {DurationSeconds: 3}}
	if err := writeConcatManifest(path, []string{dir + "/a.png", dir + "/b.png"}, scenes); err != nil {
		t.Fatalf("writeConcatManifest: %v", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading manifest: %v", err)
	}
	got := string(content)
	if !strings.Contains(got, "duration 2.5") || !strings.Contains(got, "duration 3") {
		t.Fatalf("manifest missing expected durations: %q", got)
	}
}
