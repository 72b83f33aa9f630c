package objectstore

import "testing"

func TestImagePath(t *testing.T) {
	if got, want := ImagePath("job-1", 3), "videos/job-1/images/scene-3.jpg"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestJobPaths(t *testing.T) {
	id := "job-1"
	if got, want := JobAudioPath(id), "videos/job-1/audio.mp3"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if got, want := JobCaptionsPath(id), "videos/job-1/captions.srt"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if got, want := JobFinalVideoPath(id), "videos/job-1/final.mp4"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestPublicURL(t *testing.T) {
	g := &Gateway{publicBaseURL: "https://cdn.example.com"}
	got := g.PublicURL("renders-images", "videos/job-1/images/scene-1.jpg")
	want := "https://cdn.example.com/renders-images/videos/job-1/images/scene-1.jpg"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
