package providers

import (
	"net/http"
	"testing"

	xerrors "github.com/livepeer/catalyst-api/errors"
)

func TestClassifyStatus(t *testing.T) {
	cases := []struct {
		status int
		body   string
		kind   xerrors.Kind
	}{
		{http.StatusUnauthorized, "", xerrors.KindProviderAuth},
		{http.StatusForbidden, "", xerrors.KindProviderAuth},
		{http.StatusTooManyRequests, "", xerrors.KindProviderQuota},
		{http.StatusBadRequest, "rejected by our safety system", xerrors.KindContentPolicy},
		{http.StatusInternalServerError, "", xerrors.KindProviderTransient},
		{http.StatusBadRequest, "garbage", xerrors.KindBadOutput},
	}
	for _, c := range cases {
		err := classifyStatus(c.status, c.body)
		if xerrors.KindOf(err) != c.kind {
			t.Errorf("classifyStatus(%d, %q) = %v, want kind %v", c.status, c.body, xerrors.KindOf(err), c.kind)
		}
	}
}

func TestNormalizeSubtitlePath(t *testing.T) {
	if got := normalizeSubtitlePath("workspace/captions.srt"); got != "workspace/captions.srt" {
		t.Errorf("unexpected unix path normalization: %q", got)
	}
	if got := normalizeSubtitlePath(`C:\work\captions.srt`); got != `C\:/work/captions.srt` {
		t.Errorf("unexpected windows path normalization: %q", got)
	}
}
