package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/appliance-assistant/internal/domain/appliance"
	"github.com/yanqian/appliance-assistant/internal/domain/booking"
	"github.com/yanqian/appliance-assistant/internal/domain/flow"
	"github.com/yanqian/appliance-assistant/internal/infra/config"
	"github.com/yanqian/appliance-assistant/internal/infra/imagestore"
	"github.com/yanqian/appliance-assistant/internal/infra/jsonrepo"
	"github.com/yanqian/appliance-assistant/internal/infra/partscatalog"
	"github.com/yanqian/appliance-assistant/internal/infra/sessionstore"
)

const testAdminToken = "admin-secret"

type routerUnderTest struct {
	server      *http.Server
	sessions    *sessionstore.MemoryStore
	bookings    *jsonrepo.BookingRepository
	technicians *jsonrepo.TechnicianRepository
	dataDir     string
}

func newRouterUnderTest(t *testing.T) *routerUnderTest {
	t.Helper()
	return newRouterWithAdminToken(t, testAdminToken)
}

func newRouterWithAdminToken(t *testing.T, adminToken string) *routerUnderTest {
	t.Helper()
	logger := newTestLogger()
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "technicians.json"), `[
		{"id": "T1", "name": "Maria", "specialization": ["Refrigerator"], "rating": 4.8, "base_fee": 95,
		 "time_slots": [{"day": "Tuesday", "slots": ["9:00 AM - 11:00 AM"]}]},
		{"id": "T2", "name": "Sam", "specialization": ["All Appliances"], "rating": 4.0, "base_fee": 110}
	]`)
	writeTestFile(t, filepath.Join(dir, "knowledge_base.json"), `{"dangerous_keywords": ["smoke"]}`)
	writeTestFile(t, filepath.Join(dir, "common_issues.json"), `{"Refrigerator": ["Not cooling"]}`)
	writeTestFile(t, filepath.Join(dir, "parts", "Door Not Sealing Properly", "Door Seal Kit - Price $34.99.jpg"), "jpeg")

	technicians := jsonrepo.NewTechnicianRepository(filepath.Join(dir, "technicians.json"))
	kb := jsonrepo.NewKnowledgeBaseRepository(filepath.Join(dir, "knowledge_base.json"))
	issues := jsonrepo.NewCommonIssuesRepository(filepath.Join(dir, "common_issues.json"))
	bookingRepo, err := jsonrepo.NewBookingRepository(filepath.Join(dir, "bookings.json"), logger)
	require.NoError(t, err)
	catalog := partscatalog.New(filepath.Join(dir, "parts"), logger)

	bookingSvc := booking.NewService(booking.Config{
		CombinedTechnicianFee: 125,
		TaxRate:               0.08,
		ShippingCost:          9.99,
		SlotWindowDays:        7,
		DeliveryMinDays:       3,
		DeliveryMaxDays:       7,
	}, technicians, bookingRepo, kb, logger)
	orchestrator := flow.NewOrchestrator(flow.Agents{}, catalog, logger)
	engine := flow.NewEngine(flow.Config{MaxImageBytes: 1 << 20}, orchestrator, bookingSvc, issues, kb, imagestore.NewMemoryStorage(), logger)

	sessions := sessionstore.NewMemoryStore(16, time.Hour)
	handler := NewHandler(
		engine,
		sessions,
		NewSessionTokens("test-secret", time.Hour),
		technicians,
		catalog,
		bookingSvc,
		CacheClearers{technicians, kb, issues},
		UploadLimit(1<<20),
		logger,
	)
	cfg := &config.Config{
		HTTP: config.HTTPConfig{
			Address:      ":0",
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
			AdminToken:   adminToken,
		},
	}
	return &routerUnderTest{
		server:      NewRouter(cfg, handler),
		sessions:    sessions,
		bookings:    bookingRepo,
		technicians: technicians,
		dataDir:     dir,
	}
}

func (r *routerUnderTest) do(method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return r.serve(req)
}

func (r *routerUnderTest) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.server.Handler.ServeHTTP(rec, req)
	return rec
}

func (r *routerUnderTest) clearCache(adminToken string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/cache/clear", nil)
	if adminToken != "" {
		req.Header.Set(adminTokenHeader, adminToken)
	}
	return r.serve(req)
}

func (r *routerUnderTest) postJSON(path, token, body string) *httptest.ResponseRecorder {
	return r.do(http.MethodPost, path, token, bytes.NewBufferString(body), "application/json")
}

func (r *routerUnderTest) createSession(t *testing.T) SessionResponse {
	t.Helper()
	rec := r.postJSON("/api/v1/sessions", "", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	var resp SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Session)
	require.NotEmpty(t, resp.Token)
	return resp
}

func TestRouter_Health(t *testing.T) {
	t.Parallel()
	r := newRouterUnderTest(t)
	rec := r.do(http.MethodGet, "/healthz", "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRouter_SessionLifecycleWithoutCredentials(t *testing.T) {
	t.Parallel()
	r := newRouterUnderTest(t)
	created := r.createSession(t)
	require.Equal(t, flow.StateCategorySelection, created.View.Flow)
	require.Contains(t, created.View.Notices, flow.MissingCredentialsNotice)
	require.Contains(t, created.View.Categories, "Refrigerator")

	base := "/api/v1/sessions/" + created.Session
	rec := r.postJSON(base+"/events", created.Token, `{"type":"submit_appliance","appliance":{"brand":"LG","model":"WM3900"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decodeView(t, rec)
	require.Equal(t, flow.StateIssueListing, view.Flow)
	require.Equal(t, appliance.Unknown, view.Appliance.ApplianceType)
	require.Contains(t, view.Messages[len(view.Messages)-1].Content, "describe the problem you're experiencing directly")

	rec = r.do(http.MethodGet, base, created.Token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, flow.StateIssueListing, decodeView(t, rec).Flow)

	rec = r.postJSON(base+"/reset", created.Token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	view = decodeView(t, rec)
	require.Equal(t, flow.StateCategorySelection, view.Flow)
	require.Equal(t, created.Session, view.SessionID)
	require.Empty(t, view.Messages)
}

func TestRouter_EventErrors(t *testing.T) {
	t.Parallel()
	r := newRouterUnderTest(t)
	created := r.createSession(t)
	base := "/api/v1/sessions/" + created.Session

	cases := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"malformed json", `{"type":`, http.StatusBadRequest, "invalid_request"},
		{"unknown event", `{"type":"fly"}`, http.StatusBadRequest, "invalid_input"},
		{"illegal in state", `{"type":"confirm_booking","payment":"pay_now"}`, http.StatusConflict, "unhandled_event"},
		{"missing model", `{"type":"submit_appliance","appliance":{"brand":"LG"}}`, http.StatusBadRequest, "invalid_input"},
	}
	for _, tc := range cases {
		rec := r.postJSON(base+"/events", created.Token, tc.body)
		require.Equal(t, tc.status, rec.Code, tc.name)
		errBody := decodeErrorBody(t, rec.Body.Bytes())
		require.Equal(t, tc.code, errBody["error"]["code"], tc.name)
		require.NotEmpty(t, errBody["error"]["message"], tc.name)
	}

	rec := r.do(http.MethodGet, base, created.Token, nil, "")
	view := decodeView(t, rec)
	require.Equal(t, flow.StateCategorySelection, view.Flow)
	require.Empty(t, view.Messages)
}

func TestRouter_SessionAuth(t *testing.T) {
	t.Parallel()
	r := newRouterUnderTest(t)
	first := r.createSession(t)
	second := r.createSession(t)

	rec := r.do(http.MethodGet, "/api/v1/sessions/"+first.Session, "", nil, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "unauthorized", decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])

	rec = r.do(http.MethodGet, "/api/v1/sessions/"+first.Session, second.Token, nil, "")
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = r.do(http.MethodGet, "/api/v1/sessions/"+first.Session, "not-a-jwt", nil, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "invalid_token", decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])

	rec = r.do(http.MethodGet, "/api/v1/sessions/"+first.Session+"?token="+first.Token, "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_UnknownSession(t *testing.T) {
	t.Parallel()
	r := newRouterUnderTest(t)
	tokens := NewSessionTokens("test-secret", time.Hour)
	token, err := tokens.Issue("01HZZZZZZZZZZZZZZZZZZZZZZZ")
	require.NoError(t, err)

	rec := r.do(http.MethodGet, "/api/v1/sessions/01HZZZZZZZZZZZZZZZZZZZZZZZ", token, nil, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "not_found", decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])
}

func TestRouter_NameplateUpload(t *testing.T) {
	t.Parallel()
	r := newRouterUnderTest(t)
	created := r.createSession(t)
	base := "/api/v1/sessions/" + created.Session

	body, contentType := multipartImage(t, "plate.jpg", []byte{0xff, 0xd8, 0xff, 0xe0})
	rec := r.do(http.MethodPost, base+"/nameplate", created.Token, body, contentType)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decodeView(t, rec)
	require.Equal(t, flow.StateCategorySelection, view.Flow)
	require.NotEmpty(t, view.Notices)

	body, contentType = multipartImage(t, "plate.gif", []byte("GIF89a"))
	rec = r.do(http.MethodPost, base+"/nameplate", created.Token, body, contentType)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_input", decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])

	rec = r.do(http.MethodPost, base+"/nameplate", created.Token, bytes.NewBufferString("{}"), "application/json")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = r.do(http.MethodGet, base+"/images/deadbeef", created.Token, nil, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_Technicians(t *testing.T) {
	t.Parallel()
	r := newRouterUnderTest(t)

	var resp struct {
		Technicians []appliance.Technician `json:"technicians"`
	}
	rec := r.do(http.MethodGet, "/api/v1/technicians", "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Technicians, 2)

	rec = r.do(http.MethodGet, "/api/v1/technicians?applianceType=Dishwasher", "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Technicians, 1)
	require.Equal(t, "T2", resp.Technicians[0].ID)
}

func TestRouter_Parts(t *testing.T) {
	t.Parallel()
	r := newRouterUnderTest(t)

	rec := r.do(http.MethodGet, "/api/v1/parts?issue=Door+Not+Sealing+Properly", "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Special bool           `json:"special"`
		Parts   []PartResponse `json:"parts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Special)
	require.Len(t, resp.Parts, 1)
	part := resp.Parts[0]
	require.Equal(t, "Door Seal Kit", part.Name)
	require.InDelta(t, 34.99, part.Price, 0.001)
	require.Equal(t, "Door Not Sealing Properly/Door Seal Kit - Price $34.99.jpg", part.ImagePath)
	require.Equal(t, "/api/v1/parts/images/Door%20Not%20Sealing%20Properly/Door%20Seal%20Kit%20-%20Price%20$34.99.jpg", part.ImageURL)

	rec = r.do(http.MethodGet, part.ImageURL, "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "jpeg", rec.Body.String())

	escaped := "/api/v1/parts/images/" + url.PathEscape("Door Not Sealing Properly") + "/" + url.PathEscape(part.Filename)
	rec = r.do(http.MethodGet, escaped, "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = r.do(http.MethodGet, "/api/v1/parts/images/../technicians.json", "", nil, "")
	require.NotEqual(t, http.StatusOK, rec.Code)

	rec = r.do(http.MethodGet, "/api/v1/parts", "", nil, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_PartsMatchLooseIssueNames(t *testing.T) {
	t.Parallel()
	r := newRouterUnderTest(t)

	for _, issue := range []string{"door not sealing", "Door not sealing properly after move"} {
		rec := r.do(http.MethodGet, "/api/v1/parts?issue="+url.QueryEscape(issue), "", nil, "")
		require.Equal(t, http.StatusOK, rec.Code, issue)
		var resp struct {
			Special bool           `json:"special"`
			Parts   []PartResponse `json:"parts"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), issue)
		require.True(t, resp.Special, issue)
		require.Len(t, resp.Parts, 1, issue)
	}
}

func TestRouter_Booking(t *testing.T) {
	t.Parallel()
	r := newRouterUnderTest(t)
	stored := appliance.Booking{
		BookingID:     "AB12CD34",
		Timestamp:     appliance.ISOTime{Time: time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)},
		TechnicianID:  "T1",
		PaymentStatus: appliance.PaymentPending,
		Customer:      appliance.Customer{Name: "Jane Doe", Phone: "555-0100"},
	}
	require.NoError(t, r.bookings.Save(context.Background(), stored))

	owner := r.createSession(t)
	s, err := r.sessions.Get(context.Background(), owner.Session)
	require.NoError(t, err)
	s.BookingIDs = append(s.BookingIDs, stored.BookingID)
	require.NoError(t, r.sessions.Save(context.Background(), s))
	stranger := r.createSession(t)

	rec := r.do(http.MethodGet, "/api/v1/bookings/AB12CD34", "", nil, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "unauthorized", decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])

	rec = r.do(http.MethodGet, "/api/v1/bookings/AB12CD34", "not-a-jwt", nil, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = r.do(http.MethodGet, "/api/v1/bookings/AB12CD34", stranger.Token, nil, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.NotContains(t, rec.Body.String(), "Jane Doe")

	rec = r.do(http.MethodGet, "/api/v1/bookings/ab12cd34", owner.Token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got appliance.Booking
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "AB12CD34", got.BookingID)
	require.Equal(t, "Jane Doe", got.Customer.Name)

	rec = r.do(http.MethodGet, "/api/v1/bookings/NOPE", owner.Token, nil, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_ClearCache(t *testing.T) {
	t.Parallel()
	r := newRouterUnderTest(t)

	techs, err := r.technicians.All(context.Background())
	require.NoError(t, err)
	require.Len(t, techs, 2)
	writeTestFile(t, filepath.Join(r.dataDir, "technicians.json"), `[{"id": "T9", "name": "Lee", "specialization": ["Washer"]}]`)

	rec := r.clearCache("")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "unauthorized", decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])

	rec = r.clearCache("wrong")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "invalid_token", decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])

	techs, err = r.technicians.All(context.Background())
	require.NoError(t, err)
	require.Len(t, techs, 2)

	rec = r.clearCache(testAdminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"cleared":3}`, rec.Body.String())

	techs, err = r.technicians.All(context.Background())
	require.NoError(t, err)
	require.Len(t, techs, 1)
}

func TestRouter_ClearCacheDisabledWithoutAdminToken(t *testing.T) {
	t.Parallel()
	r := newRouterWithAdminToken(t, "")

	rec := r.clearCache("anything")
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "forbidden", decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])
}

func TestRouter_ConcurrentEventsOnOneSession(t *testing.T) {
	t.Parallel()
	r := newRouterUnderTest(t)
	created := r.createSession(t)
	base := "/api/v1/sessions/" + created.Session

	rec := r.postJSON(base+"/events", created.Token, `{"type":"submit_appliance","appliance":{"brand":"LG","model":"WM3900"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	before := len(decodeView(t, rec).Messages)

	const workers = 8
	var wg sync.WaitGroup
	codes := make([]int, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body := fmt.Sprintf(`{"type":"describe_issue","text":"noise number %d"}`, i)
			codes[i] = r.postJSON(base+"/events", created.Token, body).Code
		}(i)
	}
	wg.Wait()
	for _, code := range codes {
		require.Equal(t, http.StatusOK, code)
	}

	rec = r.do(http.MethodGet, base, created.Token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decodeView(t, rec).Messages, before+2*workers)
}

func TestRateLimiter(t *testing.T) {
	t.Parallel()
	limiter := newIPRateLimiter(config.RateLimitConfig{Enabled: true, RequestsPerMinute: 60, Burst: 2})
	now := time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	require.True(t, limiter.allow("1.1.1.1"))
	require.True(t, limiter.allow("1.1.1.1"))
	require.False(t, limiter.allow("1.1.1.1"))
	require.True(t, limiter.allow("2.2.2.2"))

	now = now.Add(time.Second)
	require.True(t, limiter.allow("1.1.1.1"))

	now = now.Add(10 * time.Minute)
	require.True(t, limiter.allow("3.3.3.3"))
	require.Len(t, limiter.visitors, 1)
}

func TestSessionTokens(t *testing.T) {
	t.Parallel()
	tokens := NewSessionTokens("secret", time.Minute)
	issued := time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC)
	tokens.now = func() time.Time { return issued }

	token, err := tokens.Issue("S1")
	require.NoError(t, err)
	id, err := tokens.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "S1", id)

	_, err = NewSessionTokens("other", time.Minute).Verify(token)
	require.Error(t, err)

	tokens.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = tokens.Verify(token)
	require.Error(t, err)
}

func multipartImage(t *testing.T, filename string, data []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) flow.View {
	t.Helper()
	var view flow.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	return view
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}

func decodeErrorBody(t *testing.T, raw []byte) map[string]map[string]string {
	t.Helper()
	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}
