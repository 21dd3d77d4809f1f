package waitlist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/foxzi/backoffice/internal/apiclient"
	"github.com/foxzi/backoffice/internal/email"
	"github.com/foxzi/backoffice/internal/models"
)

type fakeStore struct {
	docs      []Document
	err       error
	lastLimit int
}

func (f *fakeStore) Recent(ctx context.Context, limit int) ([]Document, error) {
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	if limit > 0 && limit < len(f.docs) {
		return f.docs[:limit], nil
	}
	return f.docs, nil
}

type fakeSearcher struct {
	fakeStore
	term          string
	limit, offset int
}

func (f *fakeSearcher) Search(ctx context.Context, term string, limit, offset int) ([]Document, int, error) {
	f.term, f.limit, f.offset = term, limit, offset
	return f.docs[:1], 42, nil
}

func doc(id, email, name string) Document {
	return Document{ID: id, Fields: map[string]any{"email": email, "name": name}}
}

func sampleDocs(n int) []Document {
	docs := make([]Document, 0, n+3)
	docs = append(docs,
		doc("a", "alice@example.com", "Alice"),
		doc("b", "bob@example.com", "Bob Alvarez"),
		Document{ID: "c", Fields: map[string]any{"email": "carol@EXAMPLE.com", "fullName": "Carol AL"}},
	)
	for i := 0; i < n; i++ {
		docs = append(docs, doc(fmt.Sprintf("u%d", i), fmt.Sprintf("user%d@test.io", i), ""))
	}
	return docs
}

func TestListSearchMatchesEmailOrName(t *testing.T) {
	store := &fakeStore{docs: sampleDocs(200)}
	svc := NewService(store, nil, Options{}, nil)

	for _, term := range []string{"al", "AL", "example", "Alvarez", "user1", "zzz"} {
		t.Run(term, func(t *testing.T) {
			page, err := svc.List(context.Background(), models.WaitlistQuery{Search: term})
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			lowered := strings.ToLower(term)
			for _, u := range page.Users {
				if !strings.Contains(strings.ToLower(u.Email), lowered) && !strings.Contains(strings.ToLower(u.Name), lowered) {
					t.Errorf("user %+v does not match %q", u, term)
				}
			}
			if page.Total < len(page.Users) {
				t.Errorf("Total = %d < returned %d", page.Total, len(page.Users))
			}
		})
	}

	if store.lastLimit != 1000 {
		t.Errorf("search fetch limit = %d, want 1000", store.lastLimit)
	}
}

func TestListAlSearch(t *testing.T) {
	svc := NewService(&fakeStore{docs: sampleDocs(5)}, nil, Options{}, nil)

	page, err := svc.List(context.Background(), models.WaitlistQuery{Search: "al"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if page.Total != 3 {
		t.Errorf("Total = %d, want 3 (alice, bob alvarez, carol al)", page.Total)
	}
	if page.Users[2].Name != "Carol AL" {
		t.Errorf("fullName fallback not applied: %+v", page.Users[2])
	}
}

func TestListPaginatesFilteredSet(t *testing.T) {
	store := &fakeStore{docs: sampleDocs(50)}
	svc := NewService(store, nil, Options{}, nil)

	page, err := svc.List(context.Background(), models.WaitlistQuery{Search: "test.io", Limit: 20, Offset: 40})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if page.Total != 50 {
		t.Errorf("Total = %d, want 50", page.Total)
	}
	if len(page.Users) != 10 {
		t.Errorf("len(Users) = %d, want 10", len(page.Users))
	}
	if page.Limit != 20 || page.Offset != 40 {
		t.Errorf("Limit/Offset = %d/%d", page.Limit, page.Offset)
	}

	beyond, err := svc.List(context.Background(), models.WaitlistQuery{Search: "test.io", Limit: 20, Offset: 500})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(beyond.Users) != 0 {
		t.Errorf("offset past end returned %d users", len(beyond.Users))
	}
}

func TestListWithoutSearchUsesLimit(t *testing.T) {
	store := &fakeStore{docs: sampleDocs(300)}
	svc := NewService(store, nil, Options{}, nil)

	page, err := svc.List(context.Background(), models.WaitlistQuery{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if store.lastLimit != 100 {
		t.Errorf("fetch limit = %d, want 100", store.lastLimit)
	}
	if len(page.Users) != 100 || page.Total != 100 {
		t.Errorf("len(Users) = %d, Total = %d", len(page.Users), page.Total)
	}
	if page.Users[0].Metadata == nil {
		t.Error("Metadata is nil, want empty map")
	}
}

func TestListWrapsStoreError(t *testing.T) {
	svc := NewService(&fakeStore{err: errors.New("connection refused")}, nil, Options{}, nil)

	_, err := svc.List(context.Background(), models.WaitlistQuery{})
	if !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("List() error = %v, want ErrFetchFailed", err)
	}
}

func TestListUsesServerSearch(t *testing.T) {
	store := &fakeSearcher{fakeStore: fakeStore{docs: sampleDocs(5)}}

	svc := NewService(store, nil, Options{ServerSearch: true}, nil)
	page, err := svc.List(context.Background(), models.WaitlistQuery{Search: " al ", Limit: 10, Offset: 5})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if store.term != "al" || store.limit != 10 || store.offset != 5 {
		t.Errorf("Search(%q, %d, %d)", store.term, store.limit, store.offset)
	}
	if page.Total != 42 || len(page.Users) != 1 {
		t.Errorf("Total = %d, len(Users) = %d", page.Total, len(page.Users))
	}

	store.term = "unset"
	svc = NewService(store, nil, Options{ServerSearch: false}, nil)
	if _, err := svc.List(context.Background(), models.WaitlistQuery{Search: "al"}); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if store.term != "unset" {
		t.Error("server search used while disabled")
	}
}

type converter struct{ t time.Time }

func (c converter) Time() time.Time { return c.t }

func TestNormalizeTime(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	want := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

	tests := []struct {
		name string
		in   any
		want time.Time
	}{
		{"time", want, want},
		{"bson datetime", primitive.NewDateTimeFromTime(want), want},
		{"bson timestamp", primitive.Timestamp{T: uint32(want.Unix())}, want},
		{"converter", converter{want}, want},
		{"rfc3339", "2025-03-04T05:06:07Z", want},
		{"millis", want.UnixMilli(), want},
		{"float millis", float64(want.UnixMilli()), want},
		{"garbage string", "yesterday", now},
		{"missing", nil, now},
		{"unknown type", []int{1}, now},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeTime(tt.in, now); !got.Equal(tt.want) {
				t.Errorf("normalizeTime(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeMetadata(t *testing.T) {
	u := normalize(Document{ID: "x", Fields: map[string]any{
		"email":    "a@b.c",
		"metadata": bson.D{{Key: "source", Value: "landing"}},
	}}, time.Now())
	if u.Metadata["source"] != "landing" {
		t.Errorf("Metadata = %v", u.Metadata)
	}

	u = normalize(Document{ID: "y", Fields: map[string]any{"metadata": bson.M{"ref": "ads"}}}, time.Now())
	if u.Metadata["ref"] != "ads" {
		t.Errorf("Metadata = %v", u.Metadata)
	}
}

func TestSearchFilter(t *testing.T) {
	if len(SearchFilter("")) != 0 {
		t.Error("empty term produced a filter")
	}

	f := SearchFilter("a.b+")
	or, ok := f["$or"].(bson.A)
	if !ok || len(or) != 3 {
		t.Fatalf("filter = %v", f)
	}
	re := or[0].(bson.M)["email"].(primitive.Regex)
	if re.Pattern != `a\.b\+` || re.Options != "i" {
		t.Errorf("regex = %+v", re)
	}
}

func newSendServer(t *testing.T, status func(addr string) int) (*apiclient.Client, *[]string) {
	t.Helper()
	var mu sync.Mutex
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/admin/waitlist/send-email" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req struct {
			Email string `json:"email"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		mu.Lock()
		seen = append(seen, req.Email)
		mu.Unlock()
		code := status(req.Email)
		w.WriteHeader(code)
		if code < 300 {
			w.Write([]byte(`{"success":true,"message":"sent"}`))
		}
	}))
	t.Cleanup(srv.Close)
	return apiclient.New(srv.URL, apiclient.NewMemoryTokens(apiclient.Tokens{}), time.Second), &seen
}

func TestSendEmailToMultiple(t *testing.T) {
	client, seen := newSendServer(t, func(string) int { return http.StatusOK })
	svc := NewService(nil, client, Options{}, nil)

	resp, err := svc.SendEmailToMultiple(context.Background(),
		[]string{"a@example.com", "not-an-email", "b@example.com"}, "Hi", "Hello", "")
	if err != nil {
		t.Fatalf("SendEmailToMultiple() error = %v", err)
	}

	if resp.SentCount != 2 || resp.FailedCount != 1 {
		t.Errorf("sent/failed = %d/%d, want 2/1", resp.SentCount, resp.FailedCount)
	}
	if len(resp.FailedEmails) != 1 || resp.FailedEmails[0] != "not-an-email" {
		t.Errorf("FailedEmails = %v", resp.FailedEmails)
	}
	if resp.Success {
		t.Error("Success = true with a failure")
	}
	if resp.Message != "Sent 2 email(s), 1 failed" {
		t.Errorf("Message = %q", resp.Message)
	}
	if len(*seen) != 2 || (*seen)[0] != "a@example.com" || (*seen)[1] != "b@example.com" {
		t.Errorf("requests = %v, want one per valid address in order", *seen)
	}
}

func TestSendEmailToMultipleServerFailure(t *testing.T) {
	client, _ := newSendServer(t, func(addr string) int {
		if addr == "b@example.com" {
			return http.StatusInternalServerError
		}
		return http.StatusOK
	})
	svc := NewService(nil, client, Options{}, nil)

	resp, err := svc.SendEmailToMultiple(context.Background(),
		[]string{"a@example.com", "b@example.com"}, "Hi", "", "<p>Hi</p>")
	if err != nil {
		t.Fatalf("SendEmailToMultiple() error = %v", err)
	}
	if resp.SentCount != 1 || resp.FailedCount != 1 || resp.FailedEmails[0] != "b@example.com" {
		t.Errorf("response = %+v", resp)
	}
}

func TestSendEmailToMultipleAllSent(t *testing.T) {
	client, _ := newSendServer(t, func(string) int { return http.StatusOK })
	svc := NewService(nil, client, Options{}, nil)

	resp, err := svc.SendEmailToMultiple(context.Background(), []string{"a@example.com"}, "Hi", "x", "")
	if err != nil {
		t.Fatalf("SendEmailToMultiple() error = %v", err)
	}
	if !resp.Success || resp.FailedEmails != nil {
		t.Errorf("response = %+v", resp)
	}
}

func TestSendEachCancelledKeepsPartialSummary(t *testing.T) {
	client, seen := newSendServer(t, func(string) int { return http.StatusOK })
	svc := NewService(nil, client, Options{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addrs := []string{"a@example.com", "b@example.com", "c@example.com"}
	resp, err := svc.sendEach(ctx, addrs, func(i int) (models.SendEmailRequest, error) {
		if i == 1 {
			cancel()
			return models.SendEmailRequest{}, errors.New("render failed")
		}
		return models.SendEmailRequest{Email: models.Recipients{addrs[i]}, Subject: "Hi", Text: "x"}, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("sendEach() error = %v, want context.Canceled", err)
	}
	if resp == nil {
		t.Fatal("sendEach() dropped the partial summary")
	}
	if resp.SentCount != 1 || resp.FailedCount != 1 || resp.FailedEmails[0] != "b@example.com" {
		t.Errorf("response = %+v, want 1 sent and b@example.com failed", resp)
	}
	if resp.Success {
		t.Error("Success = true for an interrupted send")
	}
	if len(*seen) != 1 {
		t.Errorf("requests = %v, want none after cancellation", *seen)
	}
}

func TestSendEmailNotFound(t *testing.T) {
	client, _ := newSendServer(t, func(string) int { return http.StatusNotFound })
	svc := NewService(nil, client, Options{}, nil)

	_, err := svc.SendEmail(context.Background(), models.SendEmailRequest{Email: models.Recipients{"a@example.com"}, Subject: "x"})
	if !errors.Is(err, email.ErrEndpointMissing) {
		t.Fatalf("SendEmail() error = %v, want ErrEndpointMissing", err)
	}
	if !strings.Contains(err.Error(), "/api/admin/waitlist/send-email may not be implemented yet") {
		t.Errorf("error = %q", err.Error())
	}
}

func TestSendPersonalized(t *testing.T) {
	var mu sync.Mutex
	var bodies []models.SendEmailRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req models.SendEmailRequest
		json.NewDecoder(r.Body).Decode(&req)
		mu.Lock()
		bodies = append(bodies, req)
		mu.Unlock()
		w.Write([]byte(`{"success":true}`))
	}))
	t.Cleanup(srv.Close)
	client := apiclient.New(srv.URL, apiclient.NewMemoryTokens(apiclient.Tokens{}), time.Second)
	svc := NewService(nil, client, Options{}, nil)

	users := []models.WaitlistUser{
		{ID: "1", Email: "ada@example.com", Name: "Ada Lovelace"},
		{ID: "2", Email: "broken"},
		{ID: "3", Email: "alan@example.com"},
	}
	tmpl := models.EmailTemplate{Subject: "Hi {{firstName}}", Text: "Your address is {{email}}"}

	resp, err := svc.SendPersonalized(context.Background(), users, tmpl)
	if err != nil {
		t.Fatalf("SendPersonalized() error = %v", err)
	}
	if resp.SentCount != 2 || resp.FailedCount != 1 || resp.FailedEmails[0] != "broken" {
		t.Errorf("response = %+v", resp)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(bodies) != 2 {
		t.Fatalf("requests = %d, want 2", len(bodies))
	}
	if bodies[0].Subject != "Hi Ada" || bodies[0].Text != "Your address is ada@example.com" {
		t.Errorf("first message = %+v", bodies[0])
	}
	if bodies[1].Subject != "Hi " {
		t.Errorf("second subject = %q, want empty name", bodies[1].Subject)
	}
}

func TestSendPersonalizedRejectsBrokenTemplate(t *testing.T) {
	svc := NewService(nil, nil, Options{}, nil)
	_, err := svc.SendPersonalized(context.Background(), nil, models.EmailTemplate{Subject: "{{if}}"})
	if err == nil {
		t.Error("SendPersonalized() accepted a template that does not parse")
	}
}
