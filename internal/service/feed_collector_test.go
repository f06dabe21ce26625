package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func redditListingJSON(community string, titles ...string) string {
	children := make([]string, 0, len(titles))
	for i, title := range titles {
		children = append(children, fmt.Sprintf(
			`{"kind":"t3","data":{"title":%q,"selftext":"body %d","permalink":"/r/%s/comments/%d/post/","url":"https://example.com/%d","score":%d,"created_utc":1760000000.0,"subreddit":%q}}`,
			title, i, community, i, i, 10*(i+1), community,
		))
	}
	return `{"kind":"Listing","data":{"children":[` + strings.Join(children, ",") + `]}}`
}

func TestFeedCollectorIsolatesFailingSources(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		switch r.URL.Path {
		case "/r/edmproduction/hot.json":
			_, _ = w.Write([]byte(redditListingJSON("edmproduction", "Mixing vocals", "Sidechain tips")))
		case "/r/ableton/hot.json":
			_, _ = w.Write([]byte(redditListingJSON("ableton", "Ableton 12 warp modes")))
		case "/r/audioengineering/hot.json":
			_, _ = w.Write([]byte(redditListingJSON("audioengineering", "Mastering chain")))
		case "/r/broken/hot.json":
			w.WriteHeader(http.StatusInternalServerError)
		case "/r/garbage/hot.json":
			_, _ = w.Write([]byte(`{"data": [not json`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	collector := NewFeedCollector(server.URL, 2*time.Second)
	items := collector.Collect(context.Background(), []FeedSource{
		{Community: "edmproduction", Limit: 5},
		{Community: "broken", Limit: 5},
		{Community: "ableton", Limit: 5},
		{Community: "garbage", Limit: 5},
		{Community: "audioengineering", Limit: 5},
	})

	if got := atomic.LoadInt32(&requests); got != 5 {
		t.Fatalf("expected one request per source, got %d", got)
	}
	if len(items) != 4 {
		t.Fatalf("expected 4 items from 3 healthy sources, got %d", len(items))
	}

	wantOrder := []string{"edmproduction", "edmproduction", "ableton", "audioengineering"}
	for i, item := range items {
		if item.Source != wantOrder[i] {
			t.Fatalf("item %d: expected source %s, got %s", i, wantOrder[i], item.Source)
		}
		if item.Channel != "reddit" {
			t.Fatalf("expected default channel reddit, got %q", item.Channel)
		}
	}

	first := items[0]
	if first.URL != "https://www.reddit.com/r/edmproduction/comments/0/post/" {
		t.Fatalf("unexpected permalink %s", first.URL)
	}
	if first.Score != 10 {
		t.Fatalf("unexpected score %d", first.Score)
	}
	if !first.CreatedAt.Equal(time.Unix(1760000000, 0).UTC()) {
		t.Fatalf("unexpected created at %v", first.CreatedAt)
	}
}

func TestFeedCollectorTimeoutIsPerSource(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/r/slow/") {
			select {
			case <-release:
			case <-r.Context().Done():
			}
			return
		}
		_, _ = w.Write([]byte(redditListingJSON("fast", "Beat making session")))
	}))
	defer server.Close()
	defer close(release)

	collector := NewFeedCollector(server.URL, 100*time.Millisecond)
	items := collector.Collect(context.Background(), []FeedSource{
		{Community: "slow"},
		{Community: "fast"},
	})

	if len(items) != 1 || items[0].Source != "fast" {
		t.Fatalf("expected only the fast source to contribute, got %+v", items)
	}
}

func TestFeedCollectorSendsClampedLimit(t *testing.T) {
	var gotLimit, gotAgent string
	collector := NewFeedCollector("https://feeds.test", time.Second)
	collector.SetHTTPClient(fakeHTTPClient{handler: func(r *http.Request) (*http.Response, error) {
		gotLimit = r.URL.Query().Get("limit")
		gotAgent = r.Header.Get("User-Agent")
		if r.URL.Path != "/r/makinghiphop/hot.json" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		return rawResponse(http.StatusOK, redditListingJSON("makinghiphop")), nil
	}})

	items := collector.Collect(context.Background(), []FeedSource{{Community: "makinghiphop", Limit: 500}})
	if len(items) != 0 {
		t.Fatalf("expected no items, got %d", len(items))
	}
	if gotLimit != "100" {
		t.Fatalf("expected limit clamped to 100, got %s", gotLimit)
	}
	if gotAgent == "" {
		t.Fatal("expected user agent header")
	}
}

func TestFeedCollectorSkipsMalformedPostsOnly(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"children":[
			{"data":{"title":"Mixing vocals","permalink":"/r/edm/comments/1/a/","score":5,"created_utc":1760000000}},
			{"data":{"title":["bad"],"permalink":"/r/edm/comments/2/b/","score":9,"created_utc":1760000000}},
			{"kind":"t3"}
		]}}`))
	}))
	defer server.Close()

	collector := NewFeedCollector(server.URL, time.Second)
	items := collector.Collect(context.Background(), []FeedSource{{Community: "edm"}})

	if len(items) != 1 {
		t.Fatalf("expected 1 valid item, got %d", len(items))
	}
	if items[0].Title != "Mixing vocals" || items[0].Score != 5 {
		t.Fatalf("unexpected item %+v", items[0])
	}
}

func TestNormalizeRedditPostRejectsInvalidItems(t *testing.T) {
	tests := []struct {
		name string
		post redditPost
		ok   bool
	}{
		{name: "missing title", post: redditPost{Title: "  ", CreatedUTC: 1}, ok: false},
		{name: "missing timestamp", post: redditPost{Title: "Mixing"}, ok: false},
		{name: "valid", post: redditPost{Title: "Mixing", CreatedUTC: 1, URL: "https://x.test/a"}, ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, ok := normalizeRedditPost(tt.post, "edm", "reddit")
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, ok)
			}
			if ok && item.URL != "https://x.test/a" {
				t.Fatalf("expected url fallback, got %s", item.URL)
			}
		})
	}
}
